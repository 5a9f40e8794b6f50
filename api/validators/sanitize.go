package validators

import (
	"strings"
	"unicode"
)

// CleanText trims input, drops control characters, collapses runs of whitespace
// into one space and truncates to maxRunes runes. maxRunes <= 0 disables truncation.
func CleanText(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	runes := 0
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			continue
		}
		if maxRunes > 0 && runes >= maxRunes {
			break
		}
		if pendingSpace {
			if maxRunes > 0 && runes+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
