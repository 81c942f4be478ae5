package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxTitleWords = 8

// songTitle derives a short display title from the prompt for providers that
// accept one. The caser is built per call; cases.Caser is stateful and must
// not be shared between goroutines.
func songTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return ""
	}
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
