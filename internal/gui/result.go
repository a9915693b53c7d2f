package gui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/lingopop/internal/session"
	"codeberg.org/snonux/lingopop/internal/term"
)

// resultScreen shows the explanation of a term and the follow-up chat
type resultScreen struct {
	app     *Application
	content fyne.CanvasObject

	backButton    *ttwidget.Button
	saveButton    *ttwidget.Button
	libraryButton *ttwidget.Button

	termText        *canvas.Text
	phoneticDisplay *widget.Label
	audioPlayer     *AudioPlayer
	imageDisplay    *ImageDisplay
	details         *fyne.Container

	chatBox    *fyne.Container
	chatScroll *container.Scroll
	chatInput  *CustomMultiLineEntry
	sendButton *ttwidget.Button
	chatStatus *widget.Label

	renderedID    string
	renderedChat  int
	renderedSaved bool
}

func newResultScreen(a *Application) *resultScreen {
	s := &resultScreen{app: a}

	s.backButton = ttwidget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		if err := a.ctrl.Back(); err != nil {
			a.showError(err)
		}
	})
	s.saveButton = ttwidget.NewButtonWithIcon("Save", theme.ContentAddIcon(), s.onToggleSave)
	s.libraryButton = ttwidget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		if err := a.ctrl.OpenLibrary(); err != nil {
			a.showError(err)
		}
	})

	s.termText = canvas.NewText("", theme.Color(theme.ColorNamePrimary))
	s.termText.TextSize = 30
	s.termText.TextStyle = fyne.TextStyle{Bold: true}

	s.phoneticDisplay = widget.NewLabel("")
	s.phoneticDisplay.TextStyle = fyne.TextStyle{Italic: true}

	s.audioPlayer = NewAudioPlayer(a.ctx, a.ctrl, true)
	s.imageDisplay = NewImageDisplay(a.fetcher)
	s.details = container.NewVBox()

	header := container.NewBorder(
		nil, nil,
		s.backButton,
		container.NewHBox(s.saveButton, s.libraryButton),
		container.NewHBox(s.termText, s.phoneticDisplay, s.audioPlayer),
	)

	imageSection := container.NewHSplit(
		s.imageDisplay,
		container.NewVScroll(s.details),
	)
	imageSection.SetOffset(0.35)

	s.chatBox = container.NewVBox()
	s.chatScroll = container.NewVScroll(s.chatBox)
	s.chatScroll.SetMinSize(fyne.NewSize(0, 160))

	s.chatInput = NewCustomMultiLineEntry()
	s.chatInput.SetPlaceHolder("Ask anything about this word... (Enter to send, Shift+Enter for a new line)")
	s.chatInput.SetMinRowsVisible(2)
	s.chatInput.SetOnSubmit(func(text string) { s.send() })
	s.chatInput.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	s.sendButton = ttwidget.NewButtonWithIcon("", theme.MailSendIcon(), s.send)
	s.chatStatus = widget.NewLabel("")
	s.chatStatus.TextStyle = fyne.TextStyle{Italic: true}

	chatSection := container.NewBorder(
		container.NewHBox(sectionTitle("Ask the tutor"), s.chatStatus),
		container.NewBorder(nil, nil, nil, s.sendButton, s.chatInput),
		nil, nil,
		s.chatScroll,
	)

	body := container.NewVSplit(imageSection, chatSection)
	body.SetOffset(0.62)

	s.content = container.NewBorder(
		container.NewVBox(header, widget.NewSeparator()),
		nil, nil, nil,
		body,
	)
	return s
}

func (s *resultScreen) setupTooltips() {
	s.backButton.SetToolTip("Back to search (Esc)")
	s.saveButton.SetToolTip("Save to notebook (s)")
	s.libraryButton.SetToolTip("Open notebook (n)")
	s.sendButton.SetToolTip("Send (Enter)")
}

func (s *resultScreen) update(st session.State) {
	rec := st.Active
	if rec == nil {
		return
	}

	if rec.ID != s.renderedID {
		s.renderedID = rec.ID
		s.renderedChat = -1
		s.showRecord(*rec)
		s.chatInput.SetText("")
	}
	s.imageDisplay.SetRef(s.app.ctx, rec.ImageURL)

	if st.ActiveSaved != s.renderedSaved {
		s.renderedSaved = st.ActiveSaved
		if st.ActiveSaved {
			s.saveButton.SetText("Saved")
			s.saveButton.SetIcon(theme.ConfirmIcon())
			s.saveButton.Importance = widget.SuccessImportance
		} else {
			s.saveButton.SetText("Save")
			s.saveButton.SetIcon(theme.ContentAddIcon())
			s.saveButton.Importance = widget.MediumImportance
		}
		s.saveButton.Refresh()
	}

	if len(st.Chat) != s.renderedChat {
		s.renderedChat = len(st.Chat)
		s.showChat(st.Chat)
	}

	if st.ChatBusy {
		s.chatStatus.SetText("typing...")
		s.sendButton.Disable()
	} else {
		s.chatStatus.SetText("")
		s.sendButton.Enable()
	}
}

// reset forgets the rendered record so the next update starts a fresh view
func (s *resultScreen) reset() {
	s.renderedID = ""
	s.renderedChat = -1
	s.chatInput.SetText("")
}

// showRecord rebuilds the explanation panel
func (s *resultScreen) showRecord(rec term.Record) {
	s.termText.Text = rec.Term
	s.termText.Refresh()
	s.phoneticDisplay.SetText(rec.Phonetic)
	s.audioPlayer.SetText(rec.Term)

	s.details.RemoveAll()
	s.details.Add(wrappedLabel(rec.Explanation))

	if len(rec.Examples) > 0 {
		s.details.Add(sectionTitle("Examples"))
		for _, ex := range rec.Examples {
			speak := NewAudioPlayer(s.app.ctx, s.app.ctrl, false)
			speak.SetText(ex.Original)
			translation := wrappedLabel(ex.Translation)
			translation.Importance = widget.LowImportance
			s.details.Add(container.NewBorder(nil, nil, speak, nil,
				container.NewVBox(wrappedLabel(ex.Original), translation)))
		}
	}
	if rec.FunUsage != "" {
		s.details.Add(sectionTitle("Fun usage"))
		s.details.Add(widget.NewCard("", "", wrappedLabel(rec.FunUsage)))
	}
	if rec.RelatedWords != "" {
		s.details.Add(sectionTitle("Related"))
		s.details.Add(wrappedLabel(rec.RelatedWords))
	}
	s.details.Refresh()
}

// showChat rebuilds the transcript
func (s *resultScreen) showChat(chat []term.ChatMessage) {
	s.chatBox.RemoveAll()
	if len(chat) == 0 {
		hint := wrappedLabel("Ask how to use it, for a mnemonic, or for more examples.")
		hint.Importance = widget.LowImportance
		s.chatBox.Add(hint)
	}
	for _, msg := range chat {
		label := wrappedLabel(msg.Text)
		if msg.Role == term.RoleUser {
			label.Alignment = fyne.TextAlignTrailing
			label.TextStyle = fyne.TextStyle{Bold: true}
		}
		s.chatBox.Add(label)
	}
	s.chatBox.Refresh()
	s.chatScroll.ScrollToBottom()
}

func (s *resultScreen) send() {
	text := strings.TrimSpace(s.chatInput.Text)
	if text == "" {
		return
	}
	s.chatInput.SetText("")
	s.app.goBackground(func(ctx context.Context) {
		if err := s.app.ctrl.Chat(ctx, text); err != nil {
			fyne.Do(func() { s.app.setStatus(err.Error()) })
		}
	})
}

func (s *resultScreen) onToggleSave() {
	if _, err := s.app.ctrl.ToggleSaveActive(); err != nil {
		s.app.showError(err)
	}
}

// focusChat puts the cursor into the chat input
func (s *resultScreen) focusChat() {
	s.app.window.Canvas().Focus(s.chatInput)
}
