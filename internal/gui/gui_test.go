package gui

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lpimage "codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/logging"
	"codeberg.org/snonux/lingopop/internal/session"
	"codeberg.org/snonux/lingopop/internal/term"
)

// newTestApplication builds the screens render needs without a controller
func newTestApplication(t *testing.T) *Application {
	t.Helper()
	test.NewTempApp(t)

	a := &Application{
		window:      test.NewTempWindow(t, nil),
		logger:      slog.Default(),
		body:        container.NewStack(),
		statusLabel: widget.NewLabel(""),
		ctx:         context.Background(),
	}
	a.search = newSearchScreen(a)
	a.result = newResultScreen(a)
	return a
}

func TestRowsSignature(t *testing.T) {
	a := term.Record{ID: "a"}
	b := term.Record{ID: "b", ImageURL: "data:image/png;base64,AAAA"}

	assert.Empty(t, rowsSignature(nil))
	assert.NotEqual(t, rowsSignature([]term.Record{a, b}), rowsSignature([]term.Record{b, a}), "order must change the signature")

	before := rowsSignature([]term.Record{a})
	a.ImageURL = "https://example.com/a.png"
	assert.NotEqual(t, before, rowsSignature([]term.Record{a}), "a backfilled image must change the signature")
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"one line":       "one line",
		"first\nsecond":  "first",
		"\nstarts blank": "",
		"trailing\n":     "trailing",
	}
	for in, want := range tests {
		assert.Equal(t, want, firstLine(in), "firstLine(%q)", in)
	}
}

func TestCustomMultiLineEntrySubmit(t *testing.T) {
	test.NewTempApp(t)

	entry := NewCustomMultiLineEntry()
	var submitted []string
	entry.SetOnSubmit(func(text string) { submitted = append(submitted, text) })
	entry.SetText("hola")

	entry.TypedKey(&fyne.KeyEvent{Name: fyne.KeyReturn})
	require.Equal(t, []string{"hola"}, submitted)

	entry.KeyDown(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	entry.TypedKey(&fyne.KeyEvent{Name: fyne.KeyReturn})
	entry.KeyUp(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	assert.Len(t, submitted, 1, "Shift+Enter must not submit")
}

func TestCustomEntryEscape(t *testing.T) {
	test.NewTempApp(t)

	entry := NewCustomEntry()
	escaped := false
	entry.SetOnEscape(func() { escaped = true })

	entry.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	assert.True(t, escaped)
}

func TestGetAppIcon(t *testing.T) {
	icon := GetAppIcon()
	assert.Equal(t, "lingopop.png", icon.Name())
	assert.NotEmpty(t, icon.Content())
}

func TestReopeningResultClearsChatDraft(t *testing.T) {
	a := newTestApplication(t)
	rec := testRecord("gato")

	a.render(session.State{Version: 1, Screen: session.ScreenResult, Active: &rec})
	a.result.chatInput.SetText("how do I say kitten?")

	a.render(session.State{Version: 2, Screen: session.ScreenSearch})
	a.render(session.State{Version: 3, Screen: session.ScreenResult, Active: &rec})

	assert.Empty(t, a.result.chatInput.Text, "draft must not survive closing the view")
	assert.Equal(t, rec.ID, a.result.renderedID)
	assert.Equal(t, 0, a.result.renderedChat)
}

func TestResultKeepsDraftWhileOpen(t *testing.T) {
	a := newTestApplication(t)
	rec := testRecord("gato")

	a.render(session.State{Version: 1, Screen: session.ScreenResult, Active: &rec})
	a.result.chatInput.SetText("draft")

	a.render(session.State{Version: 2, Screen: session.ScreenResult, Active: &rec, ActiveSaved: true})

	assert.Equal(t, "draft", a.result.chatInput.Text)
}

func testRecord(text string) term.Record {
	rec := term.NewRecord(text, term.Analysis{Explanation: "A cat."})
	rec.ImageURL = lpimage.PlaceholderURL
	return rec
}

func TestLineLevel(t *testing.T) {
	tests := map[string]slog.Level{
		`time=2026-01-02T10:00:00Z level=WARN msg="Image backfill failed"`: slog.LevelWarn,
		`time=2026-01-02T10:00:00Z level=DEBUG msg="Screen changed"`:       slog.LevelDebug,
		`{"time":"2026-01-02T10:00:00Z","level":"ERROR","msg":"boom"}`:     slog.LevelError,
		"plain text without a level":                                       slog.LevelInfo,
	}
	for line, want := range tests {
		assert.Equal(t, want, lineLevel(line), line)
	}
}

func TestLogPanelNewestFirst(t *testing.T) {
	test.NewTempApp(t)
	p := NewLogPanel()

	_, err := p.Write([]byte("level=INFO msg=first\nlevel=ERROR msg=second\n"))
	require.NoError(t, err)
	_, err = p.Write([]byte("level=WARN msg=third"))
	require.NoError(t, err)

	require.Equal(t, 3, p.length())
	newest, ok := p.line(0)
	require.True(t, ok)
	assert.Equal(t, "level=WARN msg=third", newest.text)
	assert.Equal(t, slog.LevelWarn, newest.level)

	oldest, ok := p.line(2)
	require.True(t, ok)
	assert.Equal(t, "level=INFO msg=first", oldest.text)

	_, ok = p.line(3)
	assert.False(t, ok)

	p.Clear()
	assert.Zero(t, p.length())
}

func TestLogPanelCapacity(t *testing.T) {
	test.NewTempApp(t)
	p := NewLogPanel()

	for i := 0; i < logPanelCapacity+25; i++ {
		_, err := fmt.Fprintf(p, "level=INFO msg=line-%d\n", i)
		require.NoError(t, err)
	}

	assert.Equal(t, logPanelCapacity, p.length())
	oldest, _ := p.line(logPanelCapacity - 1)
	assert.Equal(t, "level=INFO msg=line-25", oldest.text)
}

func TestLogPanelCapture(t *testing.T) {
	test.NewTempApp(t)
	p := NewLogPanel()

	p.StartCapture()
	_, err := logging.Output().Write([]byte("level=INFO msg=captured\n"))
	require.NoError(t, err)
	p.StopCapture()
	_, err = logging.Output().Write([]byte("level=INFO msg=ignored\n"))
	require.NoError(t, err)

	require.Equal(t, 1, p.length())
	l, _ := p.line(0)
	assert.Equal(t, "level=INFO msg=captured", l.text)
}
