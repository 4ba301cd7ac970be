package util

import (
	"strings"
	"unicode"
)

// Slugify derives a stable identifier from a display name: lowercase,
// runs of non-alphanumeric characters collapsed to single hyphens,
// leading and trailing hyphens trimmed. The transform is deterministic
// and idempotent, which is what makes name-keyed upserts safe to replay.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
