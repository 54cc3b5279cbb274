package commands

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var AuthoriseCmd = Authorise{
	command: command{
		credentials: "",
		tokens:      "",
	},
}

// Authorise runs the OAuth2 consent flow for installed application credentials and saves the
// resulting token. Not required for service account credentials.
type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises brats-app-sheets to access the Google Sheets spreadsheet"
}

func (cmd *Authorise) Usage() string {
	return "[--credentials <file>] [--tokens <file>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--config <file>] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Opens a Google consent page and saves the OAuth2 token for installed application")
	fmt.Println("  credentials. Service account credentials do not need to be authorised.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	return cmd.flagset("authorise")
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(conf.Google.Credentials)
	if err != nil {
		return err
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return fmt.Errorf("Authorisation error (%v)", err)
	}

	tokens := cmd.tokens
	if tokens == "" {
		tokens = tokensFile(conf.Google.Credentials)
	}

	ctx, cancel := interruptible()
	defer cancel()

	token, err := authenticate(ctx, config)
	if err != nil {
		return fmt.Errorf("Authorisation error (%v)", err)
	}

	if err := saveToken(tokens, token); err != nil {
		return err
	}

	log.Info().Str("file", tokens).Msg("saved OAuth2 token")

	return nil
}

// authenticate starts a loopback HTTP server to receive the authorisation code from the
// Google consent page and exchanges the code for a token.
func authenticate(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	state := fmt.Sprintf("%s-%d", APP, os.Getpid())
	authorised := make(chan string, 1)

	config.RedirectURL = fmt.Sprintf("http://%v/", listener.Addr())

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
			if rq.FormValue("state") != state || strings.TrimSpace(rq.FormValue("code")) == "" {
				http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
				return
			}

			fmt.Fprintf(w, "%v is authorised - you can close this page.\n", APP)

			select {
			case authorised <- rq.FormValue("code"):
			default:
			}
		}),
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("authorisation server")
		}
	}()

	defer srv.Shutdown(context.Background())

	fmt.Println()
	fmt.Println("  Open the following link in your browser to authorise access to Google Sheets:")
	fmt.Println()
	fmt.Printf("  %v\n", config.AuthCodeURL(state, oauth2.AccessTypeOffline))
	fmt.Println()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cancelled")

	case code := <-authorised:
		return config.Exchange(ctx, code)
	}
}
