package format

import (
	"fmt"
	"strings"
)

// SafeResponse wraps a model answer in the tutoring layout: a reasoning
// header, the answer itself, practice sections when the answer talks about
// examples or solutions, study tips and a verification checklist.
func SafeResponse(content string, level, subject string) string {
	var b strings.Builder
	b.WriteString(`<div class="response">`)

	fmt.Fprintf(&b, `
<div class="thinking">
<h3>Analyzing the %s Question</h3>
<p>Let's approach this %s %s problem systematically...</p>
</div>`, subject, level, subject)

	if !strings.Contains(content, "<") {
		paragraphs := strings.Split(content, "\n\n")
		for i, p := range paragraphs {
			paragraphs[i] = "<p>" + p + "</p>"
		}
		content = strings.Join(paragraphs, "\n")
	}
	b.WriteString("\n<div class=\"main-content\">" + content + "</div>")

	lower := strings.ToLower(content)
	if !strings.Contains(content, `<div class="example">`) && strings.Contains(lower, "example") {
		b.WriteString(`
<div class="example">
<h4>Example Application</h4>
<p>Here's a similar example to practice with...</p>
</div>`)
	}
	if !strings.Contains(content, `<div class="solution">`) && strings.Contains(lower, "solution") {
		b.WriteString(`
<div class="solution">
<h4>Step-by-Step Solution</h4>
<ol>
<li>First, identify the key components...</li>
<li>Then, apply the relevant concepts...</li>
<li>Finally, verify your answer...</li>
</ol>
</div>`)
	}

	b.WriteString(`
<div class="tip">
<h4>Study Tips</h4>
<ul>
<li>Practice similar questions regularly</li>
<li>Focus on understanding the concepts</li>
<li>Review your work carefully</li>
</ul>
</div>`)

	fmt.Fprintf(&b, `
<div class="verification">
<h3>Solution Verification</h3>
<ol>
<li>%s content accuracy checked ✓</li>
<li>%s format verified ✓</li>
<li>Clear explanation provided ✓</li>
<li>Aligned with MOE requirements ✓</li>
</ol>
</div>`, subject, level)

	b.WriteString(`</div>`)
	return Response(b.String())
}
