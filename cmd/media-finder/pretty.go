package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/callumgare/media-finder-cli/mediafinder"
)

type prettyStyles struct {
	heading lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	title   lipgloss.Style
	dim     lipgloss.Style
}

func newPrettyStyles(w io.Writer) prettyStyles {
	r := lipgloss.NewRenderer(w)
	return prettyStyles{
		heading: r.NewStyle().Bold(true).Underline(true),
		key:     r.NewStyle().Foreground(lipgloss.Color("6")),
		value:   r.NewStyle().Foreground(lipgloss.Color("2")),
		title:   r.NewStyle().Bold(true),
		dim:     r.NewStyle().Faint(true),
	}
}

// renderPretty prints resp as an indented tree. Colours are dropped when w
// is not a terminal.
func renderPretty(w io.Writer, resp *mediafinder.Response) error {
	st := newPrettyStyles(w)
	var b strings.Builder

	b.WriteString(st.heading.Render("Request") + "\n")
	keys := make([]string, 0, len(resp.Request))
	for k := range resp.Request {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		writeField(&b, st, 1, k, fmt.Sprint(resp.Request[k]))
	}

	b.WriteString(st.heading.Render("Page") + "\n")
	writeField(&b, st, 1, "number", fmt.Sprint(resp.Page.Number))
	if resp.Page.Cursor != "" {
		writeField(&b, st, 1, "cursor", resp.Page.Cursor)
	}
	writeField(&b, st, 1, "isLast", fmt.Sprint(resp.Page.IsLast))

	b.WriteString(st.heading.Render(fmt.Sprintf("Media (%d)", len(resp.Media))) + "\n")
	for i, m := range resp.Media {
		title := m.Title
		if title == "" {
			title = m.ID
		}
		fmt.Fprintf(&b, "  %s %s\n", st.dim.Render(fmt.Sprintf("%d.", i+1)), st.title.Render(title))
		writeField(&b, st, 2, "id", m.ID)
		if m.URL != "" {
			writeField(&b, st, 2, "url", m.URL)
		}
		if m.Description != "" {
			writeField(&b, st, 2, "description", m.Description)
		}
		for _, f := range m.Files {
			label := "file"
			if f.Type != "" {
				label = f.Type
			}
			writeField(&b, st, 2, label, f.URL)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeField(b *strings.Builder, st prettyStyles, depth int, key, value string) {
	fmt.Fprintf(b, "%s%s %s\n", strings.Repeat("  ", depth), st.key.Render(key+":"), st.value.Render(value))
}
