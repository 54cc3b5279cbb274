package synapse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Profile is the subset of a Synapse UserProfile (or UserGroupHeader) used for validation.
type Profile struct {
	OwnerID   string `json:"ownerId"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type userGroupHeader struct {
	OwnerID      string `json:"ownerId"`
	UserName     string `json:"userName"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	IsIndividual bool   `json:"isIndividual"`
}

type userGroupHeaderPage struct {
	Children []userGroupHeader `json:"children"`
	Total    int               `json:"totalNumberOfResults"`
}

// LookupUser resolves a Synapse username to the account profile.
//
// Usernames that are all digits are indistinguishable from principal IDs, so they are resolved
// by an exact match against the user name prefix search. Other usernames are matched (case
// insensitively) against the prefix search and then resolved to the full user profile.
//
// Returns (a wrapped) ErrNotFound if the username does not match a Synapse account.
func (c *Client) LookupUser(ctx context.Context, username string) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("invalid username '%v' (%w)", username, ErrNotFound)
	}

	if isDigits(username) {
		header, err := c.findUser(ctx, username, func(h userGroupHeader) bool {
			return h.UserName == username
		})

		if err != nil {
			return nil, err
		}

		return &Profile{
			OwnerID:   header.OwnerID,
			UserName:  header.UserName,
			FirstName: header.FirstName,
			LastName:  header.LastName,
		}, nil
	}

	header, err := c.findUser(ctx, username, func(h userGroupHeader) bool {
		return strings.EqualFold(h.UserName, username)
	})

	if err != nil {
		return nil, err
	}

	return c.GetUserProfile(ctx, header.OwnerID)
}

// GetUserProfile retrieves the user profile for a principal ID.
func (c *Client) GetUserProfile(ctx context.Context, ownerID string) (*Profile, error) {
	var profile Profile

	uri := fmt.Sprintf("%v/userProfile/%v", c.repo, url.PathEscape(ownerID))
	if err := c.get(ctx, uri, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (c *Client) findUser(ctx context.Context, prefix string, match func(userGroupHeader) bool) (*userGroupHeader, error) {
	offset := 0
	for {
		q := url.Values{}
		q.Set("prefix", prefix)
		q.Set("offset", fmt.Sprintf("%v", offset))
		q.Set("limit", fmt.Sprintf("%v", pageSize))

		var page userGroupHeaderPage
		if err := c.get(ctx, fmt.Sprintf("%v/userGroupHeaders?%v", c.repo, q.Encode()), &page); err != nil {
			return nil, err
		}

		for _, h := range page.Children {
			if match(h) {
				return &h, nil
			}
		}

		offset += len(page.Children)
		if len(page.Children) < pageSize || (page.Total > 0 && offset >= page.Total) {
			break
		}
	}

	return nil, fmt.Errorf("no Synapse user '%v' (%w)", prefix, ErrNotFound)
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return s != ""
}
