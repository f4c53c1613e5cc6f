package identity

import (
	"strings"
	"unicode/utf8"
)

const maxAgentLength = 255

// SanitizeAgent trims an advisory caller agent, drops angle brackets and control
// characters, and bounds its length.
func SanitizeAgent(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if utf8.RuneCountInString(s) <= maxAgentLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxAgentLength])
}
