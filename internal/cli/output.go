package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codeberg.org/snonux/lingopop/internal/term"
)

// Styles contains the lipgloss styles used for terminal output
type Styles struct {
	Term      lipgloss.Style
	Phonetic  lipgloss.Style
	Heading   lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Box       lipgloss.Style
}

// DefaultStyles returns the default terminal styles
func DefaultStyles() Styles {
	primary := lipgloss.Color("#7C3AED")
	secondary := lipgloss.Color("#06B6D4")
	muted := lipgloss.Color("#6C7086")

	return Styles{
		Term:      lipgloss.NewStyle().Bold(true).Foreground(primary),
		Phonetic:  lipgloss.NewStyle().Italic(true).Foreground(muted),
		Heading:   lipgloss.NewStyle().Bold(true).Foreground(secondary).MarginTop(1),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Highlight: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(primary),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
	}
}

// RenderRecord writes a record the way the result screen shows it
func RenderRecord(w io.Writer, rec term.Record, s Styles) {
	header := s.Term.Render(rec.Term)
	if rec.Phonetic != "" {
		header += "  " + s.Phonetic.Render(rec.Phonetic)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, rec.Explanation)

	if len(rec.Examples) > 0 {
		fmt.Fprintln(w, s.Heading.Render("Examples"))
		for _, ex := range rec.Examples {
			fmt.Fprintf(w, "  • %s\n    %s\n", ex.Original, s.Muted.Render(ex.Translation))
		}
	}
	if rec.FunUsage != "" {
		fmt.Fprintln(w, s.Heading.Render("Fun usage"))
		fmt.Fprintln(w, s.Box.Render(rec.FunUsage))
	}
	if rec.RelatedWords != "" {
		fmt.Fprintln(w, s.Heading.Render("Related"))
		fmt.Fprintln(w, "  "+rec.RelatedWords)
	}
	if rec.HasImage() {
		fmt.Fprintln(w, s.Muted.Render("Illustration: "+shorten(rec.ImageURL, 60)))
	}
}

// RenderLibrary writes one line per saved record
func RenderLibrary(w io.Writer, records []term.Record, s Styles) {
	if len(records) == 0 {
		fmt.Fprintln(w, s.Muted.Render("Your notebook is empty. Look up a word and save it."))
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s  %s\n",
			s.Muted.Render(shortID(rec.ID)),
			s.Term.Render(rec.Term),
			shorten(rec.Explanation, 60),
		)
	}
	fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf("%d saved words", len(records))))
}

var storyEmphasis = regexp.MustCompile(`\*\*(.+?)\*\*`)

// RenderStory replaces **word** markers with highlighted words
func RenderStory(story string, s Styles) string {
	return storyEmphasis.ReplaceAllStringFunc(story, func(m string) string {
		return s.Highlight.Render(strings.TrimSuffix(strings.TrimPrefix(m, "**"), "**"))
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// shorten cuts s to max runes, marking the cut with an ellipsis
func shorten(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
