package intake

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseName names attachments of messages without usable text.
	DefaultBaseName = "notify_attachment"

	maxBaseLength   = 20
	timestampLayout = "20060102150405"
)

// SanitizeBase maps every rune outside [A-Za-z0-9_-] to '_' and truncates the
// result to 20 characters. A base with nothing but underscores left falls
// back to DefaultBaseName.
func SanitizeBase(base string) string {
	var b strings.Builder
	n := 0
	for _, r := range base {
		if n == maxBaseLength {
			break
		}
		if isSafeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}

	s := b.String()
	if strings.Trim(s, "_") == "" {
		return DefaultBaseName
	}
	return s
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

// FileName builds "{base}_{YYYYMMDDhhmmss}_{counter}{ext}".
func FileName(base string, at time.Time, counter int, kind MediaKind) string {
	return SanitizeBase(base) + "_" + at.Format(timestampLayout) + "_" + strconv.Itoa(counter) + kind.Extension()
}
