package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/tutorme/internal/dispatch"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/format"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []*bot.SendMessageParams
	failHTML bool
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.sent = append(f.sent, &cp)
	if f.failHTML && p.ParseMode == models.ParseModeHTML {
		return nil, errors.New("Bad Request: can't parse entities")
	}
	return &models.Message{ID: len(f.sent)}, nil
}

func TestRenderHTML(t *testing.T) {
	in := `<div class="response"><h2>Fractions</h2><p>A <strong>fraction</strong> is <em>part</em> of a whole &amp; uses <code>a/b</code>.</p>` +
		`<ul><li>one</li><li>two</li></ul><ol><li>first</li><li>second</li></ol>` +
		`<pre><code class="language-python">print(1 < 2)</code></pre>` +
		`<div class="tip"><h4>Helpful Tip</h4><p>Draw a model.</p></div></div>`

	want := "<b>Fractions</b>\n\n" +
		"A <b>fraction</b> is <i>part</i> of a whole &amp; uses <code>a/b</code>.\n\n" +
		"• one\n• two\n\n" +
		"1. first\n2. second\n\n" +
		"<pre><code class=\"language-python\">print(1 &lt; 2)</code></pre>\n\n" +
		"<blockquote><b>Helpful Tip</b>\n\nDraw a model.</blockquote>"
	assert.Equal(t, want, RenderHTML(in))
}

func TestRenderHTML_SafeResponse(t *testing.T) {
	out := RenderHTML(format.SafeResponse("Use the model method.", "PSLE", "Mathematics"))

	assert.True(t, strings.HasPrefix(out, "<b>Analyzing the Mathematics Question</b>"), out)
	assert.Contains(t, out, "Use the model method.")
	assert.Contains(t, out, "<b>Solution Verification</b>")
	assert.NotContains(t, out, "<div")
	assert.NotContains(t, out, "<h3")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	parts := SplitMessage(strings.Repeat("a", 25), 10)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}, parts)

	parts = SplitMessage("ééééééé\nbbbbbbbbbb", 10)
	assert.Equal(t, []string{"ééééééé\n", "bbbbbbbbbb"}, parts)
}

func TestSplitHTML(t *testing.T) {
	blocks := []string{
		"<b>" + strings.Repeat("x", 30) + "</b>",
		strings.Repeat("y", 30),
		"<pre>" + strings.Repeat("z", 10) + "\n\n" + strings.Repeat("z", 10) + "</pre>",
	}
	text := strings.Join(blocks, "\n\n")

	parts := SplitHTML(text, 50)
	require.Equal(t, blocks, parts)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 50)
	}

	assert.Equal(t, []string{blocks[0] + "\n\n" + blocks[1]}, SplitHTML(blocks[0]+"\n\n"+blocks[1], 80))
}

func TestSplitHTML_OversizedBlockBecomesText(t *testing.T) {
	big := "<b>" + strings.Repeat("w ", 40) + "&amp;</b>"
	parts := SplitHTML("intro\n\n"+big, 30)

	require.Greater(t, len(parts), 2)
	assert.Equal(t, "intro", parts[0])
	for _, p := range parts[1:] {
		assert.NotContains(t, p, "<b>")
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 30)
	}
	assert.Contains(t, strings.Join(parts, ""), "&amp;")
}

func TestSendHTML(t *testing.T) {
	s := &fakeSender{}
	reply := 7
	markup := InlineKeyboard(ButtonRow(InlineButton("ok", CbNoop)))

	long := strings.Repeat("<b>part</b> "+strings.Repeat("x", 1000)+"\n\n", 6)
	require.NoError(t, SendHTML(context.Background(), s, 42, long, &reply, markup))

	require.Len(t, s.sent, 2)
	assert.Equal(t, models.ParseModeHTML, s.sent[0].ParseMode)
	assert.Equal(t, 7, s.sent[0].ReplyParameters.MessageID)
	assert.Nil(t, s.sent[1].ReplyParameters)
	assert.Nil(t, s.sent[0].ReplyMarkup)
	assert.Equal(t, markup, s.sent[1].ReplyMarkup)
}

func TestSendHTML_FallsBackToPlainText(t *testing.T) {
	s := &fakeSender{failHTML: true}
	require.NoError(t, SendHTML(context.Background(), s, 42, "<b>5 &lt; 6</b>", nil, nil))

	require.Len(t, s.sent, 2)
	assert.Equal(t, models.ParseMode(""), s.sent[1].ParseMode)
	assert.Equal(t, "5 < 6", s.sent[1].Text)
}

func TestAlertHandler(t *testing.T) {
	s := &fakeSender{}
	h := NewAlertHandler(s, -100123, 9)
	logger := slog.New(h).With("component", "bot").WithGroup("req")

	logger.Info("ignored")
	logger.Error("send failed <tab>", "error", errors.New("boom & bust"), "stack", "long trace")

	require.Len(t, s.sent, 1)
	msg := s.sent[0]
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, 9, msg.MessageThreadID)
	assert.Contains(t, msg.Text, "send failed &lt;tab&gt;")
	assert.Contains(t, msg.Text, "<b>component:</b> <code>bot</code>")
	assert.Contains(t, msg.Text, "<b>req.error:</b> <code>boom &amp; bust</code>")
	assert.NotContains(t, msg.Text, "long trace")
}

func TestAlertHandler_DisabledWithoutChat(t *testing.T) {
	h := NewAlertHandler(&fakeSender{}, 0, 0)
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestNotifier(t *testing.T) {
	s := &fakeSender{}
	NewNotifier(s, 5).Notify(context.Background(), dispatch.Notification{TabID: "t1", Title: "An error occurred"})

	require.Len(t, s.sent, 1)
	assert.Equal(t, "⚠️ An error occurred", s.sent[0].Text)
}

func TestTabsKeyboard(t *testing.T) {
	var tabs []domain.Tab
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		tabs = append(tabs, domain.Tab{ID: id, Title: "Tab " + id})
	}

	kb := TabsKeyboard(tabs, "b", 0, 2)
	rows := kb.InlineKeyboard
	require.Len(t, rows, 4)
	assert.Equal(t, "Tab a", rows[0][0].Text)
	assert.Equal(t, "✅ Tab b", rows[1][0].Text)
	assert.Equal(t, CbDelete+"b", rows[1][1].CallbackData)
	assert.Equal(t, []string{"1/3", "➡️"}, []string{rows[2][0].Text, rows[2][1].Text})
	assert.Equal(t, CbNew, rows[3][0].CallbackData)

	last := TabsKeyboard(tabs, "b", 9, 2).InlineKeyboard
	assert.Equal(t, CbSwitch+"e", last[0][0].CallbackData)
	assert.Equal(t, CbTabsPage+"1", last[1][0].CallbackData)
}

func TestSubjectAndModelKeyboards(t *testing.T) {
	kb := SubjectKeyboard(domain.LevelOLevel, []string{"English Language", "Combined Science (Physics/Chemistry)"})
	assert.Equal(t, "subj:OLEVEL:1", kb.InlineKeyboard[1][0].CallbackData)
	for _, row := range kb.InlineKeyboard {
		assert.LessOrEqual(t, len(row[0].CallbackData), 64)
	}

	rows := ModelKeyboard("gemini-1.5-pro").InlineKeyboard
	require.Len(t, rows, 2)
	assert.Equal(t, "✅ Gemini 1.5 Pro", rows[1][0].Text)
	assert.Equal(t, CbModel+"gemini-2.0-flash-exp", rows[0][0].CallbackData)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,aGk=", DataURL("image/png", []byte("hi")))
}
