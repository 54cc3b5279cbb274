// Package config loads the validator configuration from a YAML file, overlaid with values from
// the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AccessAlreadyGranted = "Access already granted"
	PendingInvite        = "Pending invite"
	MissingRegistration  = "Missing registration"
	ErrorSendingInvite   = "Error sending invite"
)

type Google struct {
	Credentials string `yaml:"credentials" env:"GOOGLE_CREDENTIALS"`
	Spreadsheet string `yaml:"spreadsheet" env:"GOOGLE_SPREADSHEET"`
	Responses   string `yaml:"responses"   env:"GOOGLE_RESPONSES_SHEET"`
	Log         string `yaml:"log"         env:"GOOGLE_LOG_SHEET"`
}

type Synapse struct {
	AuthToken    string        `yaml:"auth_token"    env:"SYNAPSE_AUTH_TOKEN"`
	RepoEndpoint string        `yaml:"repo_endpoint" env:"SYNAPSE_REPO_ENDPOINT"`
	FileEndpoint string        `yaml:"file_endpoint" env:"SYNAPSE_FILE_ENDPOINT"`
	Timeout      time.Duration `yaml:"timeout"       env:"SYNAPSE_TIMEOUT"`
	WriteDelay   time.Duration `yaml:"write_delay"   env:"SYNAPSE_WRITE_DELAY"`
}

type Challenge struct {
	Name             string `yaml:"name"                env:"CHALLENGE_NAME"`
	ChallengeTeamID  int64  `yaml:"challenge_team_id"   env:"CHALLENGE_TEAM_ID"`
	DataAccessTeamID int64  `yaml:"data_access_team_id" env:"DATA_ACCESS_TEAM_ID"`
}

type Notifications struct {
	Subject   string            `yaml:"subject"`
	Signature string            `yaml:"signature"`
	Invite    string            `yaml:"invite"`
	Templates map[string]string `yaml:"templates"`
}

type Metrics struct {
	Pushgateway string `yaml:"pushgateway" env:"PROMETHEUS_PUSHGATEWAY"`
	Job         string `yaml:"job"         env:"PROMETHEUS_JOB"`
}

type Config struct {
	Google        Google        `yaml:"google"`
	Synapse       Synapse       `yaml:"synapse"`
	Challenge     Challenge     `yaml:"challenge"`
	Notifications Notifications `yaml:"notifications"`
	Metrics       Metrics       `yaml:"metrics"`
}

// NewConfig returns a configuration initialised with the defaults for the BraTS data access
// request workflow.
func NewConfig() *Config {
	return &Config{
		Google: Google{
			Spreadsheet: "BraTS Data Access Responses",
			Responses:   "2025 and beyond",
			Log:         "Logs",
		},
		Synapse: Synapse{
			Timeout:    30 * time.Second,
			WriteDelay: 6 * time.Second,
		},
		Challenge: Challenge{
			Name:             "BraTS-Lighthouse 2025",
			ChallengeTeamID:  3523569,
			DataAccessTeamID: 3523636,
		},
		Notifications: Notifications{
			Subject:   "BraTS Data Access Form",
			Signature: "BraTS Bot",
			Invite: "Thank you for your interest in the BraTS data! After clicking 'Join', you " +
				"can start downloading data from the 'Files' tab of the BraTS Challenge " +
				"websites.",
			Templates: map[string]string{
				AccessAlreadyGranted: "You have already joined the BraTS Data Access Team. To download " +
					"the data, please go to the 'Files' tab of the challenge website.",

				PendingInvite: "An email invite to join the BraTS Data Access Team has already been " +
					"sent.  Please check your inbox or spam folder for an email from the " +
					"BraTS Bot account (brats-fets-bot@synapse.org).",

				MissingRegistration: "You must first register and agree to the Terms & Conditions of the " +
					"latest BraTS Challenge:<br/><br/>> {{.Challenge}}<br/><br/>If you " +
					"are still interested in gaining access to the data, please register " +
					"for the challenge listed above, then re-submit the Google Form.",

				ErrorSendingInvite: "There was a problem sending your invite to join the BraTS Data Access " +
					"Team ({{.Cause}}). Please re-submit the Google Form or contact the " +
					"challenge organisers if the problem persists.",
			},
		},
		Metrics: Metrics{
			Job: "brats-app-sheets",
		},
	}
}

// Load overlays the configuration with the YAML file (if it exists), then the .env file in the
// working directory (if it exists) and finally the environment variables.
func (c *Config) Load(file string) error {
	if file = strings.TrimSpace(file); file != "" {
		if b, err := os.ReadFile(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		} else if err == nil {
			if err := c.parse(b); err != nil {
				return err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return c.env()
}

func (c *Config) parse(b []byte) error {
	defaults := c.Notifications.Templates

	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	// keep the default for any template the file does not override
	for k, v := range defaults {
		if _, ok := c.Notifications.Templates[k]; !ok {
			if c.Notifications.Templates == nil {
				c.Notifications.Templates = map[string]string{}
			}
			c.Notifications.Templates[k] = v
		}
	}

	return nil
}

func (c *Config) env() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Validate checks that everything required to run a validation batch has been configured.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Google.Credentials) == "" {
		return fmt.Errorf("missing Google credentials file")
	}

	if strings.TrimSpace(c.Google.Spreadsheet) == "" {
		return fmt.Errorf("missing spreadsheet title/URL")
	}

	if strings.TrimSpace(c.Google.Responses) == "" {
		return fmt.Errorf("missing responses worksheet name")
	}

	if strings.TrimSpace(c.Google.Log) == "" {
		return fmt.Errorf("missing log worksheet name")
	}

	if strings.TrimSpace(c.Synapse.AuthToken) == "" {
		return fmt.Errorf("missing Synapse auth token (SYNAPSE_AUTH_TOKEN)")
	}

	if c.Challenge.ChallengeTeamID <= 0 {
		return fmt.Errorf("invalid challenge team ID (%v)", c.Challenge.ChallengeTeamID)
	}

	if c.Challenge.DataAccessTeamID <= 0 {
		return fmt.Errorf("invalid data access team ID (%v)", c.Challenge.DataAccessTeamID)
	}

	if c.Challenge.ChallengeTeamID == c.Challenge.DataAccessTeamID {
		return fmt.Errorf("challenge team and data access team must be different teams")
	}

	if c.Synapse.WriteDelay < 0 {
		return fmt.Errorf("invalid Synapse write delay (%v)", c.Synapse.WriteDelay)
	}

	return nil
}
