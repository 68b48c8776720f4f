package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowdesk ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"   __ _                   _          _    ", "#34d399"},
		{"  / _| | _____      __ __| | ___ ___| | __", "#2dd4bf"},
		{" | |_| |/ _ \\ \\ /\\ / // _` |/ _ / __| |/ /", "#22d3ee"},
		{" |  _| | (_) \\ V  V /| (_| |  __\\__ \\   < ", "#38bdf8"},
		{" |_| |_|\\___/ \\_/\\_/  \\__,_|\\___|___/_|\\_\\", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
