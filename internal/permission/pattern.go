// Package permission decides which Ghost sites ghostmark may send requests
// to. Access is expressed as host patterns such as "https://blog.example.com/*"
// or "https://*.ghost.io/*".
package permission

import (
	"strings"
)

type pattern struct {
	scheme string
	host   string
	path   string
}

func parsePattern(raw string) (pattern, bool) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(raw), "://")
	if !ok || scheme == "" || rest == "" {
		return pattern{}, false
	}
	host, path, found := strings.Cut(rest, "/")
	if host == "" {
		return pattern{}, false
	}
	if found {
		path = "/" + path
	} else {
		path = "/*"
	}
	return pattern{scheme: strings.ToLower(scheme), host: strings.ToLower(host), path: path}, true
}

// Covers reports whether granting granted also grants requested. Schemes
// must match ("*" matches http and https), hosts match exactly or through a
// leading "*." wildcard, and the requested path must fall under the
// granted one.
func Covers(granted, requested string) bool {
	g, ok := parsePattern(granted)
	if !ok {
		return false
	}
	r, ok := parsePattern(requested)
	if !ok {
		return false
	}

	if !matchScheme(r.scheme, g.scheme) {
		return false
	}
	if !MatchHost(r.host, g.host) {
		return false
	}
	return matchPath(r.path, g.path)
}

// MatchHost reports whether host matches pattern. Supports "*" and
// "*.example.com", which also matches the bare example.com. Both sides are
// compared case-insensitively.
func MatchHost(host, pattern string) bool {
	host, pattern = strings.ToLower(host), strings.ToLower(pattern)
	if pattern == "*" || host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(host, suffix) || host == pattern[2:]
	}
	return false
}

// matchScheme treats a "*" pattern as http or https only.
func matchScheme(scheme, pattern string) bool {
	if pattern != "*" {
		return scheme == pattern
	}
	switch scheme {
	case "http", "https", "*":
		return true
	}
	return false
}

func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix) || path+"/" == prefix
	}
	return path == pattern
}
