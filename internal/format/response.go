// Package format turns raw model text into the HTML the chat renders.
// Everything here is a pure function of its input.
package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)
	betweenTagRe = regexp.MustCompile(`>\s+<`)
	headerRe     = regexp.MustCompile(`^(#{1,6})\s*(.*)$`)
	bulletRe     = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)
	orderedRe    = regexp.MustCompile(`^\s*\d+\.\s+(.*)$`)
	sectionRe    = regexp.MustCompile(`^(Example|Solution|Tip):\s*(.*)$`)
	fenceRe      = regexp.MustCompile("^```\\s*(\\w*)\\s*$")
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
)

var sectionTitles = map[string]struct{ class, title string }{
	"Example":  {"example", "Example"},
	"Solution": {"solution", "Solution"},
	"Tip":      {"tip", "Helpful Tip"},
}

// Response normalises model output into a response block. Text that already
// contains block markup only has its whitespace tidied; anything else is
// treated as markdown.
func Response(content string) string {
	if strings.Contains(content, "</div>") {
		out := blankLinesRe.ReplaceAllString(content, "\n")
		out = betweenTagRe.ReplaceAllString(out, ">\n<")
		return strings.TrimSpace(out)
	}

	body := markdown(balanceFences(content))
	if strings.HasPrefix(body, `<div class="response">`) {
		return body
	}
	return `<div class="response">` + body + `</div>`
}

type block struct {
	b strings.Builder

	list    string // "ul", "ol" or ""
	section bool
	code    bool
}

func (bl *block) closeList() {
	if bl.list != "" {
		bl.b.WriteString("</" + bl.list + ">\n")
		bl.list = ""
	}
}

func (bl *block) openList(kind string) {
	if bl.list == kind {
		return
	}
	bl.closeList()
	bl.b.WriteString("<" + kind + ">\n")
	bl.list = kind
}

func (bl *block) closeSection() {
	bl.closeList()
	if bl.section {
		bl.b.WriteString("</div>\n")
		bl.section = false
	}
}

func markdown(content string) string {
	var bl block

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if bl.code {
			if strings.TrimSpace(line) == "```" {
				bl.b.WriteString("</code></pre>\n")
				bl.code = false
				continue
			}
			bl.b.WriteString(html.EscapeString(line) + "\n")
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			bl.closeSection()
			continue
		}

		if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
			bl.closeList()
			class := ""
			if m[1] != "" {
				class = ` class="language-` + m[1] + `"`
			}
			bl.b.WriteString("<pre><code" + class + ">")
			bl.code = true
			continue
		}

		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			bl.closeList()
			level := strconv.Itoa(len(m[1]))
			bl.b.WriteString("<h" + level + ">" + inline(m[2]) + "</h" + level + ">\n")
			continue
		}

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			bl.closeSection()
			s := sectionTitles[m[1]]
			bl.b.WriteString(`<div class="` + s.class + `">` + "\n<h4>" + s.title + "</h4>\n")
			bl.section = true
			if m[2] != "" {
				bl.b.WriteString("<p>" + inline(m[2]) + "</p>\n")
			}
			continue
		}

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			bl.openList("ul")
			bl.b.WriteString("<li>" + inline(m[1]) + "</li>\n")
			continue
		}

		if m := orderedRe.FindStringSubmatch(line); m != nil {
			bl.openList("ol")
			bl.b.WriteString("<li>" + inline(m[1]) + "</li>\n")
			continue
		}

		bl.closeList()
		bl.b.WriteString("<p>" + inline(trimmed) + "</p>\n")
	}

	if bl.code {
		bl.b.WriteString("</code></pre>\n")
	}
	bl.closeSection()

	return strings.TrimSpace(bl.b.String())
}

// inline escapes text and applies bold, italic and code spans.
func inline(s string) string {
	var codes []string
	s = inlineCodeRe.ReplaceAllStringFunc(s, func(m string) string {
		codes = append(codes, html.EscapeString(m[1:len(m)-1]))
		return "\x00" + strconv.Itoa(len(codes)-1) + "\x00"
	})

	s = html.EscapeString(s)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")

	for i, c := range codes {
		s = strings.Replace(s, "\x00"+strconv.Itoa(i)+"\x00", "<code>"+c+"</code>", 1)
	}
	return s
}

// balanceFences closes a trailing unterminated code fence and unterminated
// inline code spans outside fences.
func balanceFences(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}

	var b strings.Builder
	inFence := false
	inlineOpen := false
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], "```") {
			if inlineOpen {
				b.WriteByte('`')
				inlineOpen = false
			}
			inFence = !inFence
			b.WriteString("```")
			i += 2
			continue
		}
		if text[i] == '\n' && inlineOpen {
			b.WriteByte('`')
			inlineOpen = false
		}
		if !inFence && text[i] == '`' {
			inlineOpen = !inlineOpen
		}
		b.WriteByte(text[i])
	}
	if inlineOpen {
		b.WriteByte('`')
	}
	return b.String()
}
