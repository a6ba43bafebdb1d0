package telegram

import (
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderHTML converts response markup into the subset of HTML Telegram
// accepts (b, i, code, pre, blockquote). Blocks are separated by blank lines
// so SplitHTML can cut between them.
func RenderHTML(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return html.EscapeString(markup)
	}
	var b strings.Builder
	renderNodes(&b, doc.Find("body"))
	return tidyBlocks(b.String())
}

func renderNodes(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch name := goquery.NodeName(s); name {
		case "#text":
			b.WriteString(html.EscapeString(collapse(s.Text())))
		case "br":
			b.WriteString("\n")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n<b>" + html.EscapeString(strings.TrimSpace(s.Text())) + "</b>\n\n")
		case "strong", "b":
			b.WriteString("<b>")
			renderNodes(b, s)
			b.WriteString("</b>")
		case "em", "i":
			b.WriteString("<i>")
			renderNodes(b, s)
			b.WriteString("</i>")
		case "code":
			b.WriteString("<code>" + html.EscapeString(s.Text()) + "</code>")
		case "pre":
			b.WriteString("\n\n" + renderPre(s) + "\n\n")
		case "p":
			b.WriteString("\n\n")
			renderNodes(b, s)
			b.WriteString("\n\n")
		case "ul", "ol":
			b.WriteString("\n\n")
			n := 0
			s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				n++
				if name == "ol" {
					b.WriteString(strconv.Itoa(n) + ". ")
				} else {
					b.WriteString("• ")
				}
				var inner strings.Builder
				renderNodes(&inner, li)
				b.WriteString(strings.TrimSpace(inner.String()) + "\n")
			})
			b.WriteString("\n")
		case "div":
			if s.HasClass("tip") || s.HasClass("note") {
				var inner strings.Builder
				renderNodes(&inner, s)
				b.WriteString("\n\n<blockquote>" + tidyBlocks(inner.String()) + "</blockquote>\n\n")
				return
			}
			b.WriteString("\n\n")
			renderNodes(b, s)
			b.WriteString("\n\n")
		default:
			renderNodes(b, s)
		}
	})
}

func renderPre(s *goquery.Selection) string {
	code := s.Find("code").First()
	lang := ""
	if class, ok := code.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if l, found := strings.CutPrefix(c, "language-"); found {
				lang = l
			}
		}
	}
	text := html.EscapeString(strings.Trim(s.Text(), "\n"))
	if lang != "" {
		return `<pre><code class="language-` + html.EscapeString(lang) + `">` + text + "</code></pre>"
	}
	return "<pre>" + text + "</pre>"
}

func collapse(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(strings.Fields(s), " ")
	if s[0] == ' ' || s[0] == '\n' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' {
		out += " "
	}
	return out
}

// tidyBlocks trims every line outside <pre> and collapses runs of blank
// lines into one.
func tidyBlocks(s string) string {
	var out []string
	inPre := false
	blank := false
	for _, line := range strings.Split(s, "\n") {
		if !inPre {
			line = strings.TrimSpace(line)
		}
		if strings.Contains(line, "<pre>") || strings.Contains(line, "<pre><code") {
			inPre = true
		}
		if strings.Contains(line, "</pre>") {
			inPre = false
		}
		if line == "" && !inPre {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
