package settings

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

var (
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
	// Everything from the first "/ghost" path segment on is admin UI or API.
	ghostSuffix = regexp.MustCompile(`^(https?://[^/]+(?:/[^/]+)*?)/ghost.*$`)
)

const minSiteURLLength = 5

// SanitizeSiteURL turns what a user pastes (a bare domain, an admin URL,
// an API URL) into the site base URL: https is assumed, trailing slashes
// and anything from /ghost on are dropped.
func SanitizeSiteURL(raw string) (string, error) {
	site := strings.TrimSpace(raw)
	if len(site) < minSiteURLLength {
		return "", domain.NewError(domain.CodeInvalidAPIURL, nil)
	}
	if !schemePrefix.MatchString(site) {
		site = "https://" + site
	}
	site = strings.TrimRight(site, "/")
	if m := ghostSuffix.FindStringSubmatch(site); m != nil {
		site = m[1]
	}

	u, err := url.Parse(site)
	if err != nil || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", domain.NewError(domain.CodeInvalidAPIURL, err)
	}
	return site, nil
}
