package preview

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	leftPadding = 2
	spacing     = 4
	minInfo     = 20
)

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// SideBySide places info lines to the right of the art. Lines listed in wrap
// are word wrapped to the space left over by the art.
func SideBySide(art string, info []string, wrap []string, width int) string {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	artWidth := 0
	for _, line := range artLines {
		artWidth = max(artWidth, len([]rune(StripAnsi(line))))
	}

	infoCol := artWidth + spacing
	infoWidth := max(minInfo, width-leftPadding-infoCol-2)

	lines := append([]string(nil), info...)
	if len(wrap) > 0 {
		lines = append(lines, "")
		for _, w := range wrap {
			lines = append(lines, WrapText(w, infoWidth)...)
		}
	}

	var out strings.Builder
	out.WriteString("\n")
	for i := 0; i < max(len(artLines), len(lines)); i++ {
		out.WriteString(strings.Repeat(" ", leftPadding))
		if i < len(artLines) {
			out.WriteString(artLines[i])
			out.WriteString(strings.Repeat(" ", infoCol-len([]rune(StripAnsi(artLines[i])))))
		} else {
			out.WriteString(strings.Repeat(" ", infoCol))
		}
		if i < len(lines) {
			out.WriteString(lines[i])
		}
		out.WriteString("\n")
	}
	out.WriteString("\n")
	return out.String()
}

// WrapText wraps text to a specified width
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	current := ""
	for _, word := range words {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			result = append(result, current)
			current = word
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}
