package domain

import "strings"

// Settings are the user's Ghost connection: the site base URL and the
// Admin API key.
type Settings struct {
	APIURL string `yaml:"api_url" json:"api_url"`
	APIKey string `yaml:"api_key" json:"api_key"`
}

// Configured reports whether both values are present.
func (s Settings) Configured() bool {
	return s.APIURL != "" && s.APIKey != ""
}

// PermissionPattern is the host pattern every request to the site needs.
func (s Settings) PermissionPattern() string {
	return SitePattern(s.APIURL)
}

// SitePattern returns "<site>/*".
func SitePattern(site string) string {
	return strings.TrimRight(site, "/") + "/*"
}

// Masked hides the secret half of the key for display.
func (s Settings) Masked() Settings {
	id, secret, ok := strings.Cut(s.APIKey, ":")
	switch {
	case s.APIKey == "":
	case !ok || secret == "":
		s.APIKey = "****"
	default:
		keep := 4
		if len(secret) < 8 {
			keep = 0
		}
		s.APIKey = id + ":" + strings.Repeat("*", len(secret)-keep) + secret[len(secret)-keep:]
	}
	return s
}
