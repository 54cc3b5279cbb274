package synapse

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

type membershipInvitation struct {
	ID        string `json:"id,omitempty"`
	TeamID    string `json:"teamId"`
	InviteeID string `json:"inviteeId"`
	Message   string `json:"message,omitempty"`
}

type invitationPage struct {
	Results []membershipInvitation `json:"results"`
	Total   int                    `json:"totalNumberOfResults"`
}

// IsTeamMember returns true if the user is a member of the team. A 404 from the team member
// endpoint means 'not a member' - any other error is returned as is.
func (c *Client) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	uri := fmt.Sprintf("%v/team/%v/member/%v", c.repo, url.PathEscape(teamID), url.PathEscape(userID))

	if err := c.get(ctx, uri, nil); errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return true, nil
}

// OpenInvitations returns the principal IDs of all users with an open invitation to join the
// team.
func (c *Client) OpenInvitations(ctx context.Context, teamID string) ([]string, error) {
	invitees := []string{}
	offset := 0

	for {
		q := url.Values{}
		q.Set("offset", fmt.Sprintf("%v", offset))
		q.Set("limit", fmt.Sprintf("%v", pageSize))

		uri := fmt.Sprintf("%v/team/%v/openInvitation?%v", c.repo, url.PathEscape(teamID), q.Encode())

		var page invitationPage
		if err := c.get(ctx, uri, &page); err != nil {
			return nil, err
		}

		for _, invitation := range page.Results {
			if invitation.InviteeID != "" {
				invitees = append(invitees, invitation.InviteeID)
			}
		}

		offset += len(page.Results)
		if len(page.Results) < pageSize || (page.Total > 0 && offset >= page.Total) {
			break
		}
	}

	return invitees, nil
}

// InviteToTeam creates a membership invitation for the user, which Synapse delivers to the
// user by email.
func (c *Client) InviteToTeam(ctx context.Context, teamID, userID, message string) error {
	invitation := membershipInvitation{
		TeamID:    teamID,
		InviteeID: userID,
		Message:   message,
	}

	return c.post(ctx, fmt.Sprintf("%v/membershipInvitation", c.repo), invitation, nil)
}
