package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/gateway"
)

// Speaker pronounces text in the target language
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// AudioPlayer is a custom widget that pronounces a piece of text
type AudioPlayer struct {
	widget.BaseWidget

	container   *fyne.Container
	playButton  *ttwidget.Button
	stopButton  *ttwidget.Button
	statusLabel *widget.Label

	ctx     context.Context
	speaker Speaker
	text    string
	busy    bool
}

// NewAudioPlayer creates a new audio player widget
func NewAudioPlayer(ctx context.Context, speaker Speaker, withStatus bool) *AudioPlayer {
	p := &AudioPlayer{ctx: ctx, speaker: speaker}

	p.playButton = ttwidget.NewButton("", p.onPlay)
	p.playButton.Icon = theme.VolumeUpIcon()
	p.playButton.SetToolTip("Listen (p)")

	p.stopButton = ttwidget.NewButton("", p.onStop)
	p.stopButton.Icon = theme.MediaStopIcon()
	p.stopButton.SetToolTip("Stop audio")

	p.statusLabel = widget.NewLabel("")

	p.playButton.Disable()
	p.stopButton.Disable()

	if withStatus {
		p.container = container.NewHBox(p.playButton, p.stopButton, layout.NewSpacer(), p.statusLabel)
	} else {
		p.container = container.NewHBox(p.playButton)
	}

	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer implements fyne.Widget
func (p *AudioPlayer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.container)
}

// SetText sets the text to pronounce
func (p *AudioPlayer) SetText(text string) {
	p.text = text
	if text == "" {
		p.Clear()
		return
	}
	if !p.busy {
		p.playButton.Enable()
	}
	p.statusLabel.SetText("")
}

// Clear clears the audio player
func (p *AudioPlayer) Clear() {
	p.text = ""
	p.playButton.Disable()
	p.stopButton.Disable()
	p.statusLabel.SetText("")
}

// Play triggers pronunciation
func (p *AudioPlayer) Play() {
	if !p.playButton.Disabled() {
		p.onPlay()
	}
}

// onPlay synthesizes and plays the text in the background
func (p *AudioPlayer) onPlay() {
	if p.text == "" || p.busy || p.speaker == nil {
		return
	}

	text := p.text
	p.busy = true
	p.playButton.Disable()
	p.statusLabel.SetText("Loading audio...")

	go func() {
		err := p.speaker.Speak(p.ctx, text)

		fyne.Do(func() {
			p.busy = false
			if p.text != "" {
				p.playButton.Enable()
			}
			if err != nil {
				p.statusLabel.SetText(gateway.UserMessage(err))
				return
			}
			p.stopButton.Enable()
			p.statusLabel.SetText("Playing: " + text)
		})
	}()
}

// onStop stops the shared playback
func (p *AudioPlayer) onStop() {
	if shared, err := audio.Shared(); err == nil {
		shared.Stop()
	}
	p.stopButton.Disable()
	p.statusLabel.SetText("Stopped")
}
