package format

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders response markup as readable text for terminals: headings
// and paragraphs become lines, list items get bullets or numbers, code keeps
// its text.
func PlainText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	var b strings.Builder
	renderText(&b, doc.Find("body"))
	return tidyLines(b.String())
}

func renderText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			b.WriteString(collapseSpace(s.Text()))
		case "br":
			b.WriteString("\n")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n" + strings.TrimSpace(s.Text()) + "\n")
		case "p", "div":
			b.WriteString("\n")
			renderText(b, s)
			b.WriteString("\n")
		case "ul", "ol":
			ordered := goquery.NodeName(s) == "ol"
			n := 0
			s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				n++
				if ordered {
					b.WriteString("\n" + strconv.Itoa(n) + ". ")
				} else {
					b.WriteString("\n• ")
				}
				var inner strings.Builder
				renderText(&inner, li)
				b.WriteString(strings.TrimSpace(inner.String()))
			})
			b.WriteString("\n")
		case "li":
			b.WriteString("\n• ")
			renderText(b, s)
		case "pre":
			b.WriteString("\n" + s.Text() + "\n")
		default:
			renderText(b, s)
		}
	})
}

func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := strings.HasPrefix(s, " ") || strings.HasPrefix(s, "\n")
	trail := strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
