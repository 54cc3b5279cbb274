package validator

import (
	"fmt"
	"strings"
)

// Outcome is the result of validating a single form response, as recorded in the log worksheet.
type Outcome string

const (
	UsernameNotFound     Outcome = "Username not found"
	AccessAlreadyGranted Outcome = "Access already granted"
	PendingInvite        Outcome = "Pending invite"
	MissingRegistration  Outcome = "Missing registration"
	InviteSent           Outcome = "Invite sent"

	ErrorSendingInvite = "Error sending invite"

	notificationError = " (error sending notification: "
)

func inviteError(err error) Outcome {
	return Outcome(fmt.Sprintf("%v: %v", ErrorSendingInvite, err))
}

func notificationFailed(outcome Outcome, err error) Outcome {
	return Outcome(fmt.Sprintf("%v%v%v)", outcome, notificationError, err))
}

// Label returns the outcome without any error detail, e.g. "Error sending invite" for
// "Error sending invite: 403 Forbidden".
func (o Outcome) Label() string {
	s := string(o)
	if i := strings.Index(s, notificationError); i >= 0 {
		s = s[:i]
	}

	if strings.HasPrefix(s, ErrorSendingInvite) {
		return ErrorSendingInvite
	}

	return s
}

// Notifies returns true for the outcomes that are reported to the user with a Synapse message.
func (o Outcome) Notifies() bool {
	return o != InviteSent && o != UsernameNotFound
}

func (o Outcome) String() string {
	return string(o)
}
