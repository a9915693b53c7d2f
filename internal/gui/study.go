package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/lingopop/internal/session"
	"codeberg.org/snonux/lingopop/internal/study"
)

// studyScreen flips through saved words as flashcards
type studyScreen struct {
	app     *Application
	content fyne.CanvasObject

	exitButton *ttwidget.Button
	prevButton *ttwidget.Button
	flipButton *ttwidget.Button
	nextButton *ttwidget.Button

	position     *widget.Label
	termText     *canvas.Text
	imageDisplay *ImageDisplay
	audioPlayer  *AudioPlayer
	explanation  *widget.Label
	example      *widget.Label
	translation  *widget.Label

	front *fyne.Container
	back  *fyne.Container
}

func newStudyScreen(a *Application) *studyScreen {
	s := &studyScreen{app: a}

	s.exitButton = ttwidget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		if err := a.ctrl.ExitStudy(); err != nil {
			a.showError(err)
		}
	})
	s.prevButton = ttwidget.NewButtonWithIcon("", theme.NavigateBackIcon(), s.onPrev)
	s.flipButton = ttwidget.NewButtonWithIcon("Flip", theme.ViewRefreshIcon(), s.onFlip)
	s.flipButton.Importance = widget.HighImportance
	s.nextButton = ttwidget.NewButtonWithIcon("", theme.NavigateNextIcon(), s.onNext)

	s.position = widget.NewLabel("")

	s.termText = canvas.NewText("", theme.Color(theme.ColorNamePrimary))
	s.termText.TextSize = 36
	s.termText.TextStyle = fyne.TextStyle{Bold: true}
	s.termText.Alignment = fyne.TextAlignCenter

	s.imageDisplay = NewImageDisplay(a.fetcher)
	s.audioPlayer = NewAudioPlayer(a.ctx, a.ctrl, false)

	s.explanation = wrappedLabel("")
	s.explanation.Alignment = fyne.TextAlignCenter
	s.example = wrappedLabel("")
	s.example.Alignment = fyne.TextAlignCenter
	s.example.TextStyle = fyne.TextStyle{Bold: true}
	s.translation = wrappedLabel("")
	s.translation.Alignment = fyne.TextAlignCenter
	s.translation.Importance = widget.LowImportance

	s.front = container.NewBorder(
		container.NewVBox(s.termText, container.NewCenter(s.audioPlayer)),
		nil, nil, nil,
		s.imageDisplay,
	)
	s.back = container.NewVBox(
		sectionTitle("Meaning"),
		s.explanation,
		widget.NewSeparator(),
		s.example,
		s.translation,
	)
	s.back.Hide()

	card := widget.NewCard("", "", container.NewStack(s.front, container.NewCenter(s.back)))

	toolbar := container.NewBorder(nil, nil, s.exitButton, nil, container.NewCenter(s.position))
	controls := container.NewCenter(container.NewHBox(s.prevButton, s.flipButton, s.nextButton))

	s.content = container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator()),
		controls,
		nil, nil,
		container.NewPadded(card),
	)
	return s
}

func (s *studyScreen) setupTooltips() {
	s.exitButton.SetToolTip("Back to notebook (Esc)")
	s.prevButton.SetToolTip("Previous card (←)")
	s.flipButton.SetToolTip("Flip card (Space)")
	s.nextButton.SetToolTip("Next card (→)")
}

func (s *studyScreen) update(st session.State) {
	if st.Card == nil || st.CardRecord == nil {
		return
	}

	s.position.SetText(fmt.Sprintf("Card %d of %d", st.CardIndex+1, st.CardCount))

	if st.CardFace == study.Front {
		s.termText.Text = st.Card.Term
		s.termText.Refresh()
		s.audioPlayer.SetText(st.Card.Term)
		s.imageDisplay.SetRef(s.app.ctx, st.Card.ImageURL)
		s.back.Hide()
		s.front.Show()
		return
	}

	s.explanation.SetText(st.Card.Explanation)
	if ex := st.Card.Example; ex != nil {
		s.example.SetText(ex.Original)
		s.translation.SetText(ex.Translation)
		s.example.Show()
		s.translation.Show()
	} else {
		s.example.Hide()
		s.translation.Hide()
	}
	s.front.Hide()
	s.back.Show()
}

func (s *studyScreen) onPrev() {
	if err := s.app.ctrl.PrevCard(); err != nil {
		s.app.showError(err)
	}
}

func (s *studyScreen) onNext() {
	if err := s.app.ctrl.NextCard(); err != nil {
		s.app.showError(err)
	}
}

func (s *studyScreen) onFlip() {
	if err := s.app.ctrl.FlipCard(); err != nil {
		s.app.showError(err)
	}
}
