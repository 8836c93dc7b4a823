package auth

import (
	"regexp"
	"time"
)

const (
	// ActiveFileName holds the token record used for authenticated calls
	ActiveFileName = "usr.current.json"

	// HomeDir holds one durable token record per username
	HomeDir = "home"
)

var accountFilePattern = regexp.MustCompile(`^usr\.(.+)\.json$`)

// TokenRecord is the persisted session of one account
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	// ExpiresOn is a Unix timestamp in milliseconds
	ExpiresOn int64  `json:"expires_on"`
	Username  string `json:"username"`
}

// Expiry returns ExpiresOn as a time
func (t *TokenRecord) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresOn)
}

// ValidAt reports whether the access token is still usable at now
func (t *TokenRecord) ValidAt(now time.Time) bool {
	return t.AccessToken != "" && now.UnixMilli() < t.ExpiresOn
}

func accountFile(username string) string {
	return HomeDir + "/usr." + username + ".json"
}
