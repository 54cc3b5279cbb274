package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/sage-bionetworks/brats-app-sheets/access"
	"github.com/sage-bionetworks/brats-app-sheets/validator"
)

var PendingCmd = Pending{
	command: command{
		credentials: "",
		tokens:      "",
		spreadsheet: "",
	},
}

// Pending lists the form responses that have not been validated yet, without contacting
// Synapse.
type Pending struct {
	command
}

func (cmd *Pending) Name() string {
	return "pending"
}

func (cmd *Pending) Description() string {
	return "Lists the data access requests that have not been validated yet"
}

func (cmd *Pending) Usage() string {
	return "[--credentials <file>] [--spreadsheet <title|URL>]"
}

func (cmd *Pending) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] pending [options]\n", APP)
	fmt.Println()
	fmt.Println("  Lists the form responses that do not have an entry in the log worksheet i.e. the responses")
	fmt.Println("  that will be validated by the next 'validate' run.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s pending --spreadsheet \"BraTS Data Access Responses\"\n", APP)
	fmt.Println()
}

func (cmd *Pending) FlagSet() *flag.FlagSet {
	return cmd.flagset("pending")
}

func (cmd *Pending) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	w, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	v := validator.NewValidator(nil, w, settings(conf), nil, log.Logger)

	pending, total, err := v.Pending(ctx)
	if err != nil {
		return err
	}

	log.Debug().Int("responses", total).Int("pending", len(pending)).Msg("pending")

	if len(pending) == 0 {
		fmt.Println("No new responses")
		return nil
	}

	return list(os.Stdout, pending)
}

func list(out io.Writer, pending []access.Response) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "%v\t%v\n", "TIMESTAMP", "SYNAPSE USERNAME")
	for _, r := range pending {
		fmt.Fprintf(w, "%v\t%v\n", r.Timestamp, r.Username)
	}

	return w.Flush()
}
