package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeReply(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"bold becomes whatsapp emphasis",
			"Your appointment is **confirmed** for **Monday**.",
			"Your appointment is *confirmed* for *Monday*.",
		},
		{
			"citations removed",
			"Sugaring costs 28 EUR【12:3†pricing.pdf】 in Cologne.",
			"Sugaring costs 28 EUR in Cologne.",
		},
		{
			"surrounding whitespace trimmed",
			"  Hello there. \n",
			"Hello there.",
		},
		{
			"single asterisks untouched",
			"Use *this* style.",
			"Use *this* style.",
		},
		{
			"combined",
			" **Done!**【4:1†faq.md】 ",
			"*Done!*",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeReply(tc.in))
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "4917012345678", DigitsOnly("whatsapp:+4917012345678"))
	assert.Equal(t, "4917012345678", DigitsOnly("+49 170 1234 5678"))
	assert.Equal(t, "", DigitsOnly("whatsapp:"))
	assert.Equal(t, "", DigitsOnly(""))
}
