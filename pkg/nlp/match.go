package nlp

import "strings"

// Tokens returns the unique tokens of an already normalized string.
func Tokens(normalized string) map[string]struct{} {
	out := make(map[string]struct{})
	if normalized == "" {
		return out
	}
	for _, t := range strings.Split(normalized, " ") {
		if t == "" {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

// ContainsPhrase reports whether a normalized phrase occurs in normalized
// text as whole words. "open tomorrow" is found in "are you open tomorrow"
// but not in "reopen tomorrows".
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" {
		return false
	}
	// pad with spaces to enforce word boundaries
	hay := " " + normalizedText + " "
	needle := " " + normalizedPhrase + " "
	return strings.Contains(hay, needle)
}

// Overlap scores how much of a normalized phrase is covered by the given
// token set: the fraction of phrase tokens present in the text, in [0, 1].
func Overlap(textTokens map[string]struct{}, normalizedPhrase string) float64 {
	if normalizedPhrase == "" {
		return 0
	}
	parts := strings.Split(normalizedPhrase, " ")
	hit := 0
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, ok := textTokens[p]; ok {
			hit++
		}
	}
	if len(parts) == 0 {
		return 0
	}
	return float64(hit) / float64(len(parts))
}
