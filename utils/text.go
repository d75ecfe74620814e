package utils

import (
	"regexp"
	"strings"
)

var (
	// Citation markers the assistant emits when it grounds an answer in an
	// uploaded file, e.g. 【12:3†pricing.pdf】. They mean nothing on WhatsApp.
	citationPattern = regexp.MustCompile(`【\d+:\d+†[^\s】]+】`)

	// Markdown bold; WhatsApp uses single asterisks for emphasis.
	boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// SanitizeReply normalizes assistant output for WhatsApp delivery.
func SanitizeReply(text string) string {
	text = boldPattern.ReplaceAllString(text, `*$1*`)
	text = citationPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// DigitsOnly strips every non-digit rune, turning a sender identifier such
// as "whatsapp:+4917012345678" into a stable user id.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
