package commands

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sage-bionetworks/brats-app-sheets/config"
	"github.com/sage-bionetworks/brats-app-sheets/metrics"
	"github.com/sage-bionetworks/brats-app-sheets/synapse"
	"github.com/sage-bionetworks/brats-app-sheets/validator"
)

var ValidateCmd = Validate{
	command: command{
		credentials: "",
		tokens:      "",
		spreadsheet: "",
	},
	delay: -1,
}

// Validate is the batch job: it validates every new form response against the Synapse
// challenge and data access teams and logs the outcome to the log worksheet.
type Validate struct {
	command
	delay time.Duration
}

func (cmd *Validate) Name() string {
	return "validate"
}

func (cmd *Validate) Description() string {
	return "Validates new data access requests and invites eligible users to the data access team"
}

func (cmd *Validate) Usage() string {
	return "[--credentials <file>] [--spreadsheet <title|URL>] [--delay <duration>]"
}

func (cmd *Validate) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] [validate] [options]\n", APP)
	fmt.Println()
	fmt.Println("  Reads the new responses from the form responses worksheet, checks each Synapse user against")
	fmt.Println("  the challenge and data access teams, sends an invite or a notification and appends the")
	fmt.Println("  outcome to the log worksheet. 'validate' is the default command.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --config brats.yaml\n", APP)
	fmt.Printf("    %s --debug validate --spreadsheet \"BraTS Data Access Responses\" --delay 10s\n", APP)
	fmt.Println()
}

func (cmd *Validate) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("validate")

	flagset.DurationVar(&cmd.delay, "delay", cmd.delay, "Minimum interval between Synapse writes (defaults to the configured write delay)")

	return flagset
}

func (cmd *Validate) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	if cmd.delay >= 0 {
		conf.Synapse.WriteDelay = cmd.delay
	}

	if err := conf.Validate(); err != nil {
		return fmt.Errorf("Invalid configuration (%v)", err)
	}

	ctx, cancel := interruptible()
	defer cancel()

	start := time.Now()

	w, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	notifications, err := validator.NewNotifications(
		conf.Notifications.Subject,
		conf.Notifications.Signature,
		conf.Challenge.Name,
		conf.Notifications.Templates)
	if err != nil {
		return fmt.Errorf("Invalid notification templates (%v)", err)
	}

	client := synapse.NewClient(conf.Synapse.AuthToken, synapse.Options{
		RepoEndpoint: conf.Synapse.RepoEndpoint,
		FileEndpoint: conf.Synapse.FileEndpoint,
		Timeout:      conf.Synapse.Timeout,
	})

	batch := metrics.NewBatch()
	v := validator.NewValidator(client, w, settings(conf), notifications, log.Logger)
	v.Recorder = batch

	summary, err := v.Run(ctx)
	if err != nil {
		return err
	}

	batch.Completed(start, summary.Responses)

	if summary.Processed == 0 {
		fmt.Println("No new responses")
	} else {
		event := log.Info().
			Str("run", summary.Run).
			Int("responses", summary.Responses).
			Int("processed", summary.Processed)

		for outcome, count := range summary.Outcomes {
			event = event.Int(outcome, count)
		}

		event.Msg("validation complete")
	}

	if conf.Metrics.Pushgateway != "" {
		if err := batch.Push(ctx, conf.Metrics.Pushgateway, conf.Metrics.Job); err != nil {
			log.Warn().Err(err).Str("pushgateway", conf.Metrics.Pushgateway).Msg("error pushing metrics")
		}
	}

	return nil
}

func settings(conf *config.Config) validator.Settings {
	return validator.Settings{
		ChallengeTeam:  strconv.FormatInt(conf.Challenge.ChallengeTeamID, 10),
		DataAccessTeam: strconv.FormatInt(conf.Challenge.DataAccessTeamID, 10),
		InviteMessage:  conf.Notifications.Invite,
		WriteDelay:     conf.Synapse.WriteDelay,
	}
}
