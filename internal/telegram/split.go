package telegram

import (
	"html"
	"strings"
	"unicode/utf8"
)

// SplitMessage splits a message into chunks of maxLen characters,
// trying to split at newlines when possible.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= maxLen {
			parts = append(parts, text)
			break
		}

		runes := []rune(text)
		splitAt := maxLen

		// Try to split at a newline
		chunk := string(runes[:maxLen])
		if lastNewline := strings.LastIndex(chunk, "\n"); lastNewline > 0 {
			if n := utf8.RuneCountInString(chunk[:lastNewline]); n > maxLen/2 {
				splitAt = n + 1
			}
		}

		parts = append(parts, string(runes[:splitAt]))
		text = string(runes[splitAt:])
	}

	return parts
}

// SplitHTML splits rendered HTML between blocks so that no tag is cut in
// half. A single block longer than maxLen is sent as escaped plain text.
func SplitHTML(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, block := range splitBlocks(text) {
		n := utf8.RuneCountInString(block)
		if n > maxLen {
			flush()
			parts = append(parts, SplitMessage(html.EscapeString(stripTags(block)), maxLen)...)
			continue
		}
		sep := 0
		if cur.Len() > 0 {
			sep = 2
		}
		if utf8.RuneCountInString(cur.String())+sep+n > maxLen {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(block)
	}
	flush()
	return parts
}

// splitBlocks cuts at blank lines, keeping <pre> sections whole.
func splitBlocks(text string) []string {
	var blocks []string
	var cur []string
	inPre := false
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "<pre") {
			inPre = true
		}
		if strings.Contains(line, "</pre>") {
			inPre = false
		}
		if line == "" && !inPre {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>' && in:
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
