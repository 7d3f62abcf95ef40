package domain

import "strings"

// =============================================================================
// Name Slugification
// =============================================================================

// Slugify converts a repository or deployment name into a container-safe
// identifier: lowercase letters, digits and single hyphens. Spaces, dots
// and underscores become hyphens; anything else is dropped; runs of
// hyphens collapse and leading/trailing hyphens are trimmed.
//
// The result is used as the compose project name and container name
// prefix, so it must stay within the charset Docker accepts.
//
// Example:
//
//	Slugify("My Repo")       // "my-repo"
//	Slugify("acme_demo.js")  // "acme-demo-js"
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
			lastHyphen = false
		case r == ' ' || r == '.' || r == '_' || r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
