package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/book2ai/book2ai/internal/domain"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// buildPrompt assembles the user prompt: the question followed by the
// retrieved excerpts, each labeled with a bracketed index the model is
// instructed to cite.
func buildPrompt(question string, chunks []domain.Chunk, maxChunkChars int) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the excerpts below. ")
	b.WriteString("Cite the excerpts you draw on by their bracketed number, e.g. [1]. ")
	b.WriteString("If the excerpts do not contain the answer, say so.\n\n")

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nExcerpts:\n")

	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] (%s)\n%s\n", i+1, c.ID, cleanExcerpt(c.Text, maxChunkChars))
	}
	return b.String()
}

// cleanExcerpt collapses runs of blank lines and truncates overly long
// chunks at a rune boundary so one excerpt cannot crowd out the rest of
// the context window.
func cleanExcerpt(text string, maxChars int) string {
	text = blankRuns.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
