package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	mathTitleRe = regexp.MustCompile(`(?i)^(Basic|Advanced|O-Level)`)
	headingRe   = regexp.MustCompile(`^(#+)\s(.*)$`)
	listItemRe  = regexp.MustCompile(`^[-*]\s(.*)$`)
)

// Display prepares stored reply text for a chat view. Worked answers with
// Calculation/Answer markers get the math layout; everything else gets the
// general layout.
func Display(content string) string {
	if strings.Contains(content, "Calculation:") || strings.Contains(content, "Answer:") {
		return mathContent(content)
	}
	return generalContent(content)
}

func mathContent(content string) string {
	clean := strings.ReplaceAll(content, "```html", "")
	clean = strings.ReplaceAll(clean, "```", "")

	var title, explanation, calculation, answer, note, current string
	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case mathTitleRe.MatchString(line):
			title = line
		case strings.HasPrefix(line, "Calculation:"):
			current = "calculation"
			calculation = strings.TrimSpace(strings.TrimPrefix(line, "Calculation:"))
		case strings.HasPrefix(line, "Answer:"):
			current = "answer"
			answer = strings.TrimSpace(strings.TrimPrefix(line, "Answer:"))
		case strings.HasPrefix(line, "Note:"):
			current = "note"
			note = strings.TrimSpace(strings.TrimPrefix(line, "Note:"))
		case explanation == "" && current == "":
			explanation = line
		case current == "note":
			note += " " + line
		}
	}

	var b strings.Builder
	b.WriteString(`<div class="math-response">`)
	if title != "" {
		b.WriteString(`<h2>` + html.EscapeString(title) + `</h2>`)
	}
	if explanation != "" {
		b.WriteString(`<p>` + html.EscapeString(explanation) + `</p>`)
	}
	if calculation != "" {
		b.WriteString(`<div class="calculation-block"><div>Calculation:</div><code>` + html.EscapeString(calculation) + `</code></div>`)
	}
	if answer != "" {
		b.WriteString(`<div class="answer-block"><div>Answer:</div><code>` + html.EscapeString(answer) + `</code></div>`)
	}
	if note != "" {
		b.WriteString(`<div class="note-block"><div>Note:</div><p>` + html.EscapeString(note) + `</p></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func generalContent(content string) string {
	var b strings.Builder
	b.WriteString(`<div class="general-response">`)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			if level > 6 {
				level = 6
			}
			tag := "h" + strconv.Itoa(level)
			b.WriteString("<" + tag + ">" + inline(m[2]) + "</" + tag + ">")
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			b.WriteString("<li>" + inline(m[1]) + "</li>")
			continue
		}
		b.WriteString("<p>" + inline(line) + "</p>")
	}
	b.WriteString(`</div>`)
	return b.String()
}
