package render

import "strings"

// NormalizeSpace collapses every run of whitespace to one space and trims
// both ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Wrap greedily packs the words of text into lines of at most width
// characters. A word longer than width first fills what is left of the
// current line and is then cut into width-sized pieces.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}

	var lines []string
	var cur []rune
	for _, w := range words {
		word := []rune(w)

		if len(cur) > 0 {
			if len(cur)+1+len(word) <= width {
				cur = append(cur, ' ')
				cur = append(cur, word...)
				continue
			}
			if len(word) <= width {
				lines = append(lines, string(cur))
				cur = append([]rune(nil), word...)
				continue
			}
			if len(cur)+1 < width {
				cur = append(cur, ' ')
				n := width - len(cur)
				cur = append(cur, word[:n]...)
				word = word[n:]
			}
			lines = append(lines, string(cur))
			cur = nil
		}

		for len(word) > width {
			lines = append(lines, string(word[:width]))
			word = word[width:]
		}
		cur = append([]rune(nil), word...)
	}

	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
