package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

var scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveMetadataReadonlyScope,
}

// authorize returns an HTTP client authorised for the Sheets and Drive APIs. Service account
// credentials are used directly, installed application credentials need the OAuth2 token
// saved by the 'authorise' command.
func authorize(ctx context.Context, credentials, tokens string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	var kind struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(b, &kind); err != nil {
		return nil, fmt.Errorf("invalid credentials file '%v' (%v)", credentials, err)
	}

	if kind.Type == "service_account" {
		jwt, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, err
		}

		return jwt.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	token, err := tokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("missing OAuth2 token (%v) - run '%v authorise' first", err, APP)
	}

	return config.Client(ctx, token), nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save OAuth2 token (%v)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
