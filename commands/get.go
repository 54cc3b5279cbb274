package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sage-bionetworks/brats-app-sheets/access"
)

var GetCmd = Get{
	command: command{
		credentials: "",
		tokens:      "",
		spreadsheet: "",
	},

	sheet: "log",
	file:  time.Now().Format("2006-01-02T150405.tsv"),
}

// Get exports the responses or log worksheet to a TSV file.
type Get struct {
	command
	sheet string
	file  string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the form responses or validation log worksheet and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "[--credentials <file>] [--spreadsheet <title|URL>] --sheet <responses|log|range> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] get [options] --sheet <sheet> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet to a TSV file. The sheet may be 'responses', 'log' or")
	fmt.Println("  a worksheet range e.g. 'Logs!A1:D'")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --sheet responses --file \"responses.tsv\"\n", APP)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet to retrieve ('responses', 'log' or a range)")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	if strings.TrimSpace(cmd.sheet) == "" {
		return fmt.Errorf("--sheet is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	area := cmd.sheet
	switch strings.ToLower(strings.TrimSpace(cmd.sheet)) {
	case "responses":
		area = conf.Google.Responses
	case "log", "logs":
		area = conf.Google.Log
	}

	ctx, cancel := interruptible()
	defer cancel()

	w, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	log.Debug().Str("spreadsheet", w.SpreadsheetID()).Str("range", area).Msg("get")

	response, err := w.Get(ctx, area)
	if err != nil {
		return err
	}

	if len(response.Values) == 0 {
		return fmt.Errorf("No data in worksheet/range '%v'", area)
	}

	tmp, err := os.CreateTemp(os.TempDir(), APP)
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := access.MakeTSV(tmp, response); err != nil {
		return fmt.Errorf("Error creating TSV file (%v)", err)
	}

	tmp.Close()

	if err := os.MkdirAll(filepath.Dir(cmd.file), 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	log.Info().Str("range", area).Str("file", cmd.file).Msg("retrieved worksheet")

	return nil
}
