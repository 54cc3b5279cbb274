package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	lib "github.com/uhppoted/uhppoted-lib/command"

	"github.com/sage-bionetworks/brats-app-sheets/commands"
)

var cli = []lib.Command{
	&commands.ValidateCmd,
	&commands.PendingCmd,
	&commands.GetCmd,
	&commands.AuthoriseCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Config: commands.DEFAULT_CONFIG,
	Debug:  false,
}

var help = lib.NewHelp(commands.APP, cli, &commands.ValidateCmd)

func main() {
	flag.StringVar(&options.Config, "config", options.Config, "Configuration file")
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	log.Logger = commands.NewLogger()
	commands.SetLogLevel(options.Debug)

	cmd, err := lib.Parse(cli, &commands.ValidateCmd, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		log.Error().Err(err).Str("command", cmd.Name()).Msg("failed")
		os.Exit(1)
	}
}
