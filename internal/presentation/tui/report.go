package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/muesli/termenv"
)

var levelIcons = map[domain.FindingLevel]string{
	domain.LevelSuccess: "✅",
	domain.LevelWarning: "⚠️",
	domain.LevelError:   "❌",
}

// FindingsMarkdown renders a validation report as markdown: a summary line and
// one bullet per finding, errors first.
func FindingsMarkdown(title string, findings []domain.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	counts := domain.CountLevels(findings)
	fmt.Fprintf(&sb, "**%d error(s), %d warning(s), %d check(s) passed**\n\n",
		counts[domain.LevelError], counts[domain.LevelWarning], counts[domain.LevelSuccess])

	for _, level := range []domain.FindingLevel{domain.LevelError, domain.LevelWarning, domain.LevelSuccess} {
		for _, f := range findings {
			if f.Level != level {
				continue
			}
			fmt.Fprintf(&sb, "- %s `%s` %s\n", levelIcons[f.Level], f.Rule, f.Message)
		}
	}
	return sb.String()
}

// PrintReport renders the findings with render and writes them to w. A nil
// render writes the raw markdown.
func PrintReport(w io.Writer, title string, findings []domain.Finding, render func(string) (string, error)) error {
	md := FindingsMarkdown(title, findings)
	if render != nil {
		out, err := render(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// Status returns a colored one-word badge for a flow status.
func Status(status domain.FlowStatus) string {
	p := termenv.ColorProfile()
	s := termenv.String(strings.ToUpper(string(status))).Bold()
	switch status {
	case domain.FlowValidated:
		s = s.Foreground(p.Color("#22c55e"))
	case domain.FlowError:
		s = s.Foreground(p.Color("#ef4444"))
	default:
		s = s.Foreground(p.Color("#eab308"))
	}
	return s.String()
}
