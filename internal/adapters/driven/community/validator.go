package community

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// accountIDBase converts a 32-bit account ID to a 64-bit identity.
const accountIDBase = 76561197960265728

// Validator checks session cookies by loading the community front page
// and looking for the signed-in account menu.
type Validator struct {
	client *Client
}

var _ driven.CredentialValidator = (*Validator)(nil)

// NewValidator creates a validator using client.
func NewValidator(client *Client) *Validator {
	return &Validator{client: client}
}

// Validate returns nil and no error when the page shows no signed-in user.
func (v *Validator) Validate(ctx context.Context, creds domain.SessionCredentials) (*domain.ProfileSummary, error) {
	doc, err := v.client.fetch(ctx, "/?l=english", creds)
	if err != nil {
		return nil, err
	}
	return parseProfile(doc, creds.Identity), nil
}

// parseProfile reads the signed-in profile link out of the account menu.
func parseProfile(doc *html.Node, fallbackIdentity string) *domain.ProfileSummary {
	menu := findFirst(doc, hasID("account_dropdown"))
	if menu == nil {
		return nil
	}

	link := findFirst(doc, func(n *html.Node) bool {
		if n.Data != "a" || attr(n, "data-miniprofile") == "" {
			return false
		}
		href := attr(n, "href")
		return strings.Contains(href, "/id/") || strings.Contains(href, "/profiles/")
	})
	if link == nil {
		return nil
	}

	name := textContent(link)
	if name == "" {
		return nil
	}

	identity := fallbackIdentity
	if account, err := strconv.ParseUint(attr(link, "data-miniprofile"), 10, 32); err == nil && account > 0 {
		identity = strconv.FormatUint(account+accountIDBase, 10)
	}
	return &domain.ProfileSummary{Identity: identity, Name: name}
}
