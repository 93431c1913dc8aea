package nlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  What's   UP??  ", "what s up"},
		{"open-24/7", "open 24 7"},
		{"", ""},
		{"---", ""},
		{"Привет, Мир", "привет мир"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), "in=%q", tc.in)
	}
}

func TestTokens(t *testing.T) {
	tokens := Tokens("when are you open today open")
	require.Len(t, tokens, 5)
	_, ok := tokens["open"]
	require.True(t, ok)

	require.Empty(t, Tokens(""))
}

func TestContainsPhrase(t *testing.T) {
	text := Normalize("Are you open tomorrow morning?")

	require.True(t, ContainsPhrase(text, "open tomorrow"))
	require.True(t, ContainsPhrase(text, "tomorrow morning"))
	require.False(t, ContainsPhrase(text, "open tomorrows"))
	require.False(t, ContainsPhrase(text, "close tomorrow"))
	require.False(t, ContainsPhrase(text, ""))
}

func TestOverlap(t *testing.T) {
	tokens := Tokens(Normalize("what are your opening hours today"))

	require.Equal(t, 1.0, Overlap(tokens, "opening hours"))
	require.Equal(t, 0.5, Overlap(tokens, "opening time"))
	require.Equal(t, 0.0, Overlap(tokens, "book appointment"))
	require.Equal(t, 0.0, Overlap(tokens, ""))
}
