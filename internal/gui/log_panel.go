package gui

import (
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/lingopop/internal/logging"
)

// logPanelCapacity bounds the lines kept in memory
const logPanelCapacity = 500

type logLine struct {
	at    time.Time
	level slog.Level
	text  string
}

// LogPanel lists recent application log lines, newest on top. It is an
// io.Writer so it can be attached to the shared log output.
type LogPanel struct {
	widget.BaseWidget

	list *widget.List
	body *fyne.Container

	mu     sync.Mutex
	lines  []logLine // oldest first
	detach func()
}

// NewLogPanel creates an empty log panel
func NewLogPanel() *LogPanel {
	p := &LogPanel{}

	p.list = widget.NewList(p.length, p.createRow, p.updateRow)

	clearButton := widget.NewButtonWithIcon("", theme.DeleteIcon(), p.Clear)
	clearButton.Importance = widget.LowImportance

	minHeight := canvas.NewRectangle(color.Transparent)
	minHeight.SetMinSize(fyne.NewSize(0, 160))

	p.body = container.NewBorder(
		container.NewBorder(nil, nil, widget.NewLabel("Session log"), clearButton),
		nil, nil, nil,
		container.NewStack(minHeight, p.list),
	)

	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer implements fyne.Widget
func (p *LogPanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.body)
}

// StartCapture attaches the panel to the shared log output
func (p *LogPanel) StartCapture() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detach == nil {
		p.detach = logging.Output().Attach(p)
	}
}

// StopCapture detaches the panel again
func (p *LogPanel) StopCapture() {
	p.mu.Lock()
	detach := p.detach
	p.detach = nil
	p.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// Write implements io.Writer. A write may carry several log lines.
func (p *LogPanel) Write(b []byte) (int, error) {
	now := time.Now()

	p.mu.Lock()
	for _, text := range strings.Split(string(b), "\n") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		p.lines = append(p.lines, logLine{at: now, level: lineLevel(text), text: text})
	}
	if over := len(p.lines) - logPanelCapacity; over > 0 {
		p.lines = append(p.lines[:0], p.lines[over:]...)
	}
	p.mu.Unlock()

	fyne.Do(p.list.Refresh)
	return len(b), nil
}

// Clear drops all lines
func (p *LogPanel) Clear() {
	p.mu.Lock()
	p.lines = nil
	p.mu.Unlock()

	fyne.Do(p.list.Refresh)
}

func (p *LogPanel) length() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lines)
}

// line returns the i-th line counting from the newest
func (p *LogPanel) line(i int) (logLine, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.lines) {
		return logLine{}, false
	}
	return p.lines[len(p.lines)-1-i], true
}

func (p *LogPanel) createRow() fyne.CanvasObject {
	label := widget.NewLabel("")
	label.TextStyle = fyne.TextStyle{Monospace: true}
	label.Truncation = fyne.TextTruncateEllipsis
	return label
}

func (p *LogPanel) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	label := obj.(*widget.Label)
	l, ok := p.line(id)
	if !ok {
		label.SetText("")
		return
	}
	label.Importance = levelImportance(l.level)
	label.SetText(l.at.Format("15:04:05") + "  " + l.text)
}

// lineLevel reads the level from a text or JSON slog line
func lineLevel(text string) slog.Level {
	for _, key := range []string{"level=", `"level":"`} {
		i := strings.Index(text, key)
		if i < 0 {
			continue
		}
		value := text[i+len(key):]
		if j := strings.IndexAny(value, ` "`); j >= 0 {
			value = value[:j]
		}
		return logging.ParseLevel(value)
	}
	return slog.LevelInfo
}

func levelImportance(level slog.Level) widget.Importance {
	switch {
	case level >= slog.LevelError:
		return widget.DangerImportance
	case level >= slog.LevelWarn:
		return widget.WarningImportance
	case level < slog.LevelInfo:
		return widget.LowImportance
	default:
		return widget.MediumImportance
	}
}
