package domain

import "time"

// SessionCredentials are community web session cookies used to read
// reward progress. They belong to one identity.
type SessionCredentials struct {
	// Identity is the account the cookies were issued for.
	Identity string `json:"identity"`

	// SessionID is the "sessionid" cookie.
	SessionID string `json:"session_id"`

	// LoginSecure is the "steamLoginSecure" cookie.
	LoginSecure string `json:"login_secure"`

	// MachineAuth is the optional parental/machine auth cookie.
	MachineAuth string `json:"machine_auth,omitempty"`

	// UpdatedAt is when the credentials were last saved.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsComplete returns true if both required cookies are present.
func (c *SessionCredentials) IsComplete() bool {
	return c != nil && c.SessionID != "" && c.LoginSecure != ""
}

// Masked returns a copy safe for display.
func (c SessionCredentials) Masked() SessionCredentials {
	c.SessionID = mask(c.SessionID)
	c.LoginSecure = mask(c.LoginSecure)
	c.MachineAuth = mask(c.MachineAuth)
	return c
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}

// ProfileSummary is the identity derived from validated credentials.
type ProfileSummary struct {
	// Identity is the account ID the credentials resolve to.
	Identity string `json:"identity"`

	// Name is the community profile name.
	Name string `json:"name"`
}
