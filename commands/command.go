package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/sage-bionetworks/brats-app-sheets/config"
	"github.com/sage-bionetworks/brats-app-sheets/workbook"
)

const APP = "brats-app-sheets"

// Options are the global command line options.
type Options struct {
	Config string
	Debug  bool
}

// command holds the Google Sheets options common to all the spreadsheet commands. Options
// that are set on the command line override the configuration file and environment.
type command struct {
	credentials string
	tokens      string
	spreadsheet string
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the Google 'credentials.json' file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Path for the OAuth2 tokens file (installed application credentials only)")
	flagset.StringVar(&c.spreadsheet, "spreadsheet", c.spreadsheet, "Spreadsheet title or URL")

	return flagset
}

// configure loads the configuration file and environment and applies the command line
// overrides.
func (c *command) configure(options *Options) (*config.Config, error) {
	conf := config.NewConfig()
	if err := conf.Load(options.Config); err != nil {
		return nil, fmt.Errorf("Error loading configuration (%v)", err)
	}

	if v := strings.TrimSpace(c.credentials); v != "" {
		conf.Google.Credentials = v
	}

	if v := strings.TrimSpace(c.spreadsheet); v != "" {
		conf.Google.Spreadsheet = v
	}

	if conf.Google.Credentials == "" {
		conf.Google.Credentials = DEFAULT_CREDENTIALS
	}

	return conf, nil
}

func (c *command) open(ctx context.Context, conf *config.Config) (*workbook.Workbook, error) {
	tokens := c.tokens
	if tokens == "" {
		tokens = tokensFile(conf.Google.Credentials)
	}

	client, err := authorize(ctx, conf.Google.Credentials, tokens)
	if err != nil {
		return nil, fmt.Errorf("Authentication/authorization error (%v)", err)
	}

	w, err := workbook.Open(ctx, conf.Google.Spreadsheet, conf.Google.Responses, conf.Google.Log, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("spreadsheet", conf.Google.Spreadsheet).
		Str("id", w.SpreadsheetID()).
		Msg("opened spreadsheet")

	return w, nil
}

// SetLogLevel configures the global zerolog level: DEBUG if --debug is set, INFO otherwise.
func SetLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// NewLogger returns the console logger used by the CLI.
func NewLogger() zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}

	return zerolog.New(writer).With().Timestamp().Str("app", APP).Logger()
}

// interruptible returns a context that is cancelled on SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func tokensFile(credentials string) string {
	dir, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(dir, fmt.Sprintf("%s.tokens", name))
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})
}
