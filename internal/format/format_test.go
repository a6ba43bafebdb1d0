package format

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestResponse_Markdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraph",
			input: "Hello",
			want:  `<div class="response"><p>Hello</p></div>`,
		},
		{
			name:  "header and paragraph",
			input: "# Title\nText",
			want:  "<div class=\"response\"><h1>Title</h1>\n<p>Text</p></div>",
		},
		{
			name:  "emphasis",
			input: "This is **key** and *soft*.",
			want:  `<div class="response"><p>This is <strong>key</strong> and <em>soft</em>.</p></div>`,
		},
		{
			name:  "inline code keeps asterisks",
			input: "Use `a*b*c` here",
			want:  `<div class="response"><p>Use <code>a*b*c</code> here</p></div>`,
		},
		{
			name:  "html is escaped",
			input: "<script>alert(1)</script> & more",
			want:  `<div class="response"><p>&lt;script&gt;alert(1)&lt;/script&gt; &amp; more</p></div>`,
		},
		{
			name:  "code fence",
			input: "```python\nx = 1 < 2\n```",
			want:  "<div class=\"response\"><pre><code class=\"language-python\">x = 1 &lt; 2\n</code></pre></div>",
		},
		{
			name:  "unterminated fence is closed",
			input: "```\ncode",
			want:  "<div class=\"response\"><pre><code>code\n</code></pre></div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Response(tt.input))
		})
	}
}

func TestResponse_ListsAreNotNested(t *testing.T) {
	out := Response("Steps:\n- gather\n- sort\n1. add\n2. check")
	doc := parse(t, out)

	assert.Equal(t, 1, doc.Find("div.response > ul").Length())
	assert.Equal(t, 1, doc.Find("div.response > ol").Length())
	assert.Equal(t, 2, doc.Find("ul > li").Length())
	assert.Equal(t, 2, doc.Find("ol > li").Length())
	assert.Equal(t, 0, doc.Find("ol ul, ul ol").Length())
	assert.Equal(t, "add", doc.Find("ol > li").First().Text())
}

func TestResponse_Sections(t *testing.T) {
	out := Response("Example: Ali has 3 apples.\nHe eats one.\n\nTip: draw a model\n\nDone.")
	doc := parse(t, out)

	example := doc.Find("div.example")
	require.Equal(t, 1, example.Length())
	assert.Equal(t, "Example", example.Find("h4").Text())
	assert.Equal(t, 2, example.Find("p").Length())

	tip := doc.Find("div.tip")
	require.Equal(t, 1, tip.Length())
	assert.Equal(t, "Helpful Tip", tip.Find("h4").Text())

	last := doc.Find("div.response > p").Last()
	assert.Equal(t, "Done.", last.Text())
}

func TestResponse_ExistingMarkupOnlyTidied(t *testing.T) {
	in := "<div class=\"x\">\n\n  <p>a</p>  \n</div>\n"
	assert.Equal(t, "<div class=\"x\">\n<p>a</p>\n</div>", Response(in))
}

func TestSafeResponse_PlainAnswer(t *testing.T) {
	out := SafeResponse("Count the tens.\n\nThen the ones.", "PSLE", "Mathematics")

	assert.True(t, strings.HasPrefix(out, `<div class="response">`))
	assert.NotContains(t, out, "\n\n")

	doc := parse(t, out)
	assert.Equal(t, "Analyzing the Mathematics Question", doc.Find("div.thinking h3").Text())
	assert.Equal(t, 2, doc.Find("div.main-content p").Length())
	assert.Equal(t, 0, doc.Find("div.example").Length())
	assert.Equal(t, 0, doc.Find("div.solution").Length())
	assert.Equal(t, 3, doc.Find("div.tip li").Length())

	var checks []string
	doc.Find("div.verification li").Each(func(_ int, s *goquery.Selection) {
		checks = append(checks, s.Text())
	})
	assert.Contains(t, checks, "PSLE format verified ✓")
	assert.Contains(t, checks, "Mathematics content accuracy checked ✓")
}

func TestSafeResponse_AddsPracticeSections(t *testing.T) {
	out := SafeResponse("<p>For example, the solution uses ratios.</p>", "OLEVEL", "Additional Mathematics")
	doc := parse(t, out)

	assert.Equal(t, 1, doc.Find("div.main-content p").Length(), "markup is kept as is")
	assert.Equal(t, "Example Application", doc.Find("div.example h4").Text())
	assert.Equal(t, 3, doc.Find("div.solution ol li").Length())
}

func TestSafeResponse_KeepsModelSections(t *testing.T) {
	out := SafeResponse(`<div class="example"><p>example here</p></div>`, "PSLE", "Science")
	doc := parse(t, out)
	assert.Equal(t, 1, doc.Find("div.example").Length())
}

func TestDisplay_Math(t *testing.T) {
	in := "Basic Fractions\nWe add halves.\nCalculation: 1/2 + 1/2\nAnswer: 1\nNote: Always simplify.\nEspecially fractions."
	want := `<div class="math-response"><h2>Basic Fractions</h2><p>We add halves.</p>` +
		`<div class="calculation-block"><div>Calculation:</div><code>1/2 + 1/2</code></div>` +
		`<div class="answer-block"><div>Answer:</div><code>1</code></div>` +
		`<div class="note-block"><div>Note:</div><p>Always simplify. Especially fractions.</p></div></div>`
	assert.Equal(t, want, Display(in))
}

func TestDisplay_General(t *testing.T) {
	in := "## Tips\n- one\n\ntext `x`"
	want := `<div class="general-response"><h2>Tips</h2><li>one</li><p>text <code>x</code></p></div>`
	assert.Equal(t, want, Display(in))
}

func TestPlainText(t *testing.T) {
	in := `<div class="response"><h2>Title</h2><p>Hello <strong>there</strong></p><ul><li>a</li><li>b</li></ul><ol><li>x</li></ol><p>1 &lt; 2</p></div>`
	assert.Equal(t, "Title\n\nHello there\n\n• a\n• b\n\n1. x\n\n1 < 2", PlainText(in))
}

func TestPlainText_SafeResponseIsReadable(t *testing.T) {
	out := PlainText(SafeResponse("Ratios compare quantities.", "PSLE", "Mathematics"))
	assert.Contains(t, out, "Analyzing the Mathematics Question")
	assert.Contains(t, out, "Ratios compare quantities.")
	assert.Contains(t, out, "• Practice similar questions regularly")
	assert.NotContains(t, out, "<")
}
