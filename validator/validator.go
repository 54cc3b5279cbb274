// Package validator validates BraTS data access requests submitted through a Google Form
// against the Synapse challenge and data access teams.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sage-bionetworks/brats-app-sheets/access"
	"github.com/sage-bionetworks/brats-app-sheets/synapse"
)

// LogTimeFormat is the format of the processing timestamp in the log worksheet.
const LogTimeFormat = "01/02/2006 15:04:05"

// Synapse is the subset of the Synapse API used to validate a form response.
type Synapse interface {
	LookupUser(ctx context.Context, username string) (*synapse.Profile, error)
	IsTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	OpenInvitations(ctx context.Context, teamID string) ([]string, error)
	InviteToTeam(ctx context.Context, teamID, userID, message string) error
	SendMessage(ctx context.Context, recipients []string, subject, body, contentType string) error
}

// Tables provides the form responses and the validation log.
type Tables interface {
	Responses(ctx context.Context) ([]access.Response, error)
	Logs(ctx context.Context) ([]access.LogEntry, error)
	AppendLog(ctx context.Context, entry access.LogEntry) error
}

// Recorder is notified of the outcome of every validated response.
type Recorder interface {
	Observe(outcome string)
}

type Settings struct {
	ChallengeTeam  string
	DataAccessTeam string
	InviteMessage  string
	WriteDelay     time.Duration
}

type Summary struct {
	Run       string
	Responses int
	Processed int
	Outcomes  map[string]int
}

type Validator struct {
	Recorder Recorder
	Now      func() time.Time

	synapse       Synapse
	tables        Tables
	settings      Settings
	notifications *Notifications
	throttle      *throttle
	log           zerolog.Logger
}

func NewValidator(s Synapse, t Tables, settings Settings, notifications *Notifications, log zerolog.Logger) *Validator {
	return &Validator{
		Now: time.Now,

		synapse:       s,
		tables:        t,
		settings:      settings,
		notifications: notifications,
		throttle:      newThrottle(settings.WriteDelay),
		log:           log,
	}
}

// Pending returns the form responses that have not been validated yet.
func (v *Validator) Pending(ctx context.Context) ([]access.Response, int, error) {
	responses, err := v.tables.Responses(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("error retrieving form responses (%w)", err)
	}

	logs, err := v.tables.Logs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("error retrieving validation log (%w)", err)
	}

	return access.Unprocessed(responses, logs), len(responses), nil
}

// Run validates all new form responses, logging the outcome of each response to the log
// worksheet. An error aborts the batch - responses that have already been logged are not
// reprocessed by the next run.
func (v *Validator) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		Run:      uuid.NewString(),
		Outcomes: map[string]int{},
	}

	log := v.log.With().Str("run", summary.Run).Logger()

	pending, total, err := v.Pending(ctx)
	if err != nil {
		return summary, err
	}

	summary.Responses = total

	if len(pending) == 0 {
		log.Info().Int("responses", total).Msg("No new responses")
		return summary, nil
	}

	log.Info().Int("responses", total).Int("new", len(pending)).Msg("validating new responses")

	invitees, err := v.synapse.OpenInvitations(ctx, v.settings.DataAccessTeam)
	if err != nil {
		return summary, fmt.Errorf("error retrieving open invitations (%w)", err)
	}

	invites := make(map[string]bool, len(invitees))
	for _, id := range invitees {
		invites[id] = true
	}

	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		outcome, err := v.Classify(ctx, r, invites)
		if err != nil {
			return summary, fmt.Errorf("error validating response from '%v' (%w)", r.Username, err)
		}

		entry := access.LogEntry{
			LoggedAt:          v.Now().Format(LogTimeFormat),
			OriginalTimestamp: r.Timestamp,
			Username:          r.Username,
			Outcome:           string(outcome),
		}

		if err := v.tables.AppendLog(ctx, entry); err != nil {
			return summary, fmt.Errorf("error writing validation log (%w)", err)
		}

		log.Info().
			Str("timestamp", r.Timestamp).
			Str("username", r.Username).
			Str("outcome", string(outcome)).
			Msg("validated")

		summary.Processed++
		summary.Outcomes[outcome.Label()]++

		if v.Recorder != nil {
			v.Recorder.Observe(outcome.Label())
		}
	}

	return summary, nil
}

// Classify validates a single form response and carries out the resulting action (team
// invitation or notification). Lookup and membership errors other than 'not found' are
// returned, whereas invitation and notification failures are reported in the outcome.
func (v *Validator) Classify(ctx context.Context, r access.Response, invites map[string]bool) (Outcome, error) {
	username := strings.TrimSpace(r.Username)

	f, profile, err := v.facts(ctx, username, invites)
	if err != nil {
		return "", err
	}

	rule := decide(f)

	v.log.Debug().
		Str("username", username).
		Bool("resolved", f.resolved).
		Bool("data-access", f.dataAccess).
		Bool("challenge", f.challenge).
		Bool("pending", f.pending).
		Str("rule", rule.name).
		Stringer("action", rule.action).
		Msg("classified")

	switch rule.action {
	case notify:
		return v.notify(ctx, username, profile, rule.outcome, nil)

	case invite:
		if err := v.throttle.wait(ctx); err != nil {
			return "", err
		}

		if err := v.synapse.InviteToTeam(ctx, v.settings.DataAccessTeam, profile.OwnerID, v.settings.InviteMessage); err != nil {
			v.log.Warn().Str("username", username).Err(err).Msg("error sending invite")
			return v.notify(ctx, username, profile, inviteError(err), err)
		}

		return rule.outcome, nil

	default:
		return rule.outcome, nil
	}
}

func (v *Validator) facts(ctx context.Context, username string, invites map[string]bool) (facts, *synapse.Profile, error) {
	profile, err := v.synapse.LookupUser(ctx, username)
	if errors.Is(err, synapse.ErrNotFound) {
		return facts{}, nil, nil
	} else if err != nil {
		return facts{}, nil, err
	} else if profile == nil || profile.OwnerID == "" {
		return facts{}, nil, nil
	}

	f := facts{
		resolved: true,
	}

	if f.dataAccess, err = v.synapse.IsTeamMember(ctx, v.settings.DataAccessTeam, profile.OwnerID); err != nil {
		return facts{}, nil, err
	} else if f.dataAccess {
		return f, profile, nil
	}

	if f.challenge, err = v.synapse.IsTeamMember(ctx, v.settings.ChallengeTeam, profile.OwnerID); err != nil {
		return facts{}, nil, err
	}

	f.pending = invites[profile.OwnerID]

	return f, profile, nil
}

func (v *Validator) notify(ctx context.Context, username string, profile *synapse.Profile, outcome Outcome, cause error) (Outcome, error) {
	subject, body, err := v.notifications.Compose(username, outcome, cause)
	if err != nil {
		v.log.Warn().Str("username", username).Err(err).Msg("error composing notification")
		return notificationFailed(outcome, err), nil
	}

	if err := v.throttle.wait(ctx); err != nil {
		return "", err
	}

	if err := v.synapse.SendMessage(ctx, []string{profile.OwnerID}, subject, body, "text/html"); err != nil {
		v.log.Warn().Str("username", username).Err(err).Msg("error sending notification")
		return notificationFailed(outcome, err), nil
	}

	return outcome, nil
}
