package gui

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/lingopop/internal/session"
	"codeberg.org/snonux/lingopop/internal/term"
)

// libraryScreen lists saved words and offers study, stories and export
type libraryScreen struct {
	app     *Application
	content fyne.CanvasObject

	backButton   *ttwidget.Button
	studyButton  *ttwidget.Button
	storyButton  *ttwidget.Button
	importButton *ttwidget.Button
	exportButton *ttwidget.Button

	title     *widget.Label
	rows      *fyne.Container
	emptyHint *widget.Label

	storyCard     *widget.Card
	storyText     *widget.RichText
	storyProgress *widget.ProgressBarInfinite
	storyError    *widget.Label
	storyHint     *widget.Label

	renderedRows  string
	renderedStory string
}

func newLibraryScreen(a *Application) *libraryScreen {
	s := &libraryScreen{app: a}

	s.backButton = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), func() {
		if err := a.ctrl.BackToSearch(); err != nil {
			a.showError(err)
		}
	})
	s.studyButton = ttwidget.NewButtonWithIcon("Study", theme.MediaPlayIcon(), func() {
		if err := a.ctrl.OpenStudy(); err != nil {
			a.showError(err)
		}
	})
	s.storyButton = ttwidget.NewButtonWithIcon("Story", theme.DocumentIcon(), s.onStory)
	s.importButton = ttwidget.NewButtonWithIcon("", theme.DownloadIcon(), a.onImport)
	s.exportButton = ttwidget.NewButtonWithIcon("", theme.UploadIcon(), a.onExportToAnki)

	s.title = sectionTitle("My Notebook")
	s.rows = container.NewVBox()
	s.emptyHint = wrappedLabel("Your notebook is empty. Look up a word and save it.")
	s.emptyHint.Alignment = fyne.TextAlignCenter

	s.storyText = widget.NewRichText()
	s.storyText.Wrapping = fyne.TextWrapWord
	s.storyProgress = widget.NewProgressBarInfinite()
	s.storyProgress.Hide()
	s.storyError = widget.NewLabel("")
	s.storyError.Importance = widget.DangerImportance
	s.storyError.Hide()
	s.storyHint = wrappedLabel("")
	s.storyHint.Importance = widget.LowImportance

	s.storyCard = widget.NewCard("Story time", "", container.NewVBox(
		s.storyHint,
		s.storyProgress,
		s.storyError,
		s.storyText,
	))

	toolbar := container.NewBorder(
		nil, nil,
		s.backButton,
		container.NewHBox(s.importButton, s.exportButton, widget.NewSeparator(), s.storyButton, s.studyButton),
		s.title,
	)

	s.content = container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator()),
		nil, nil, nil,
		container.NewVScroll(container.NewVBox(s.storyCard, s.emptyHint, s.rows)),
	)
	return s
}

func (s *libraryScreen) setupTooltips() {
	s.backButton.SetToolTip("Back to search (Esc)")
	s.studyButton.SetToolTip("Study flashcards (t)")
	s.storyButton.SetToolTip(fmt.Sprintf("Write a story with your words (needs %d)", session.StoryThreshold))
	s.importButton.SetToolTip("Import words from a file (i)")
	s.exportButton.SetToolTip("Export to Anki (x)")
}

func (s *libraryScreen) update(st session.State) {
	s.title.SetText(fmt.Sprintf("My Notebook (%d)", len(st.Library)))

	if sig := rowsSignature(st.Library); sig != s.renderedRows {
		s.renderedRows = sig
		s.showRows(st.Library)
	}

	if len(st.Library) == 0 {
		s.emptyHint.Show()
		s.studyButton.Disable()
		s.exportButton.Disable()
	} else {
		s.emptyHint.Hide()
		s.studyButton.Enable()
		s.exportButton.Enable()
	}

	s.updateStory(st)
}

func (s *libraryScreen) updateStory(st session.State) {
	if err := session.CheckStoryThreshold(len(st.Library)); err != nil {
		s.storyHint.SetText(err.Error())
		s.storyHint.Show()
	} else if st.Story == "" {
		s.storyHint.SetText("Turn your saved words into a short story.")
		s.storyHint.Show()
	} else {
		s.storyHint.Hide()
	}

	if st.StoryBusy {
		s.storyProgress.Show()
		s.storyProgress.Start()
		s.storyButton.Disable()
	} else {
		s.storyProgress.Stop()
		s.storyProgress.Hide()
		s.storyButton.Enable()
	}

	if st.StoryError != "" {
		s.storyError.SetText(st.StoryError)
		s.storyError.Show()
	} else {
		s.storyError.Hide()
	}

	if st.Story != s.renderedStory {
		s.renderedStory = st.Story
		// Stories mark saved words as **word**, which renders bold
		s.storyText.ParseMarkdown(st.Story)
	}
}

// rowsSignature changes whenever the visible rows would
func rowsSignature(records []term.Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.ID)
		if r.HasImage() {
			b.WriteByte('+')
		}
		b.WriteByte(',')
	}
	return b.String()
}

func (s *libraryScreen) showRows(records []term.Record) {
	s.rows.RemoveAll()
	for _, rec := range records {
		s.rows.Add(s.newRow(rec))
	}
	s.rows.Refresh()
}

func (s *libraryScreen) newRow(rec term.Record) fyne.CanvasObject {
	id := rec.ID
	word := rec.Term

	open := widget.NewButton(rec.Term, func() {
		if err := s.app.ctrl.SelectSaved(id); err != nil {
			s.app.showError(err)
		}
	})
	open.Alignment = widget.ButtonAlignLeading
	open.Importance = widget.LowImportance

	remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		dialog.ShowConfirm("Delete word", fmt.Sprintf("Remove '%s' from your notebook?", word), func(ok bool) {
			if !ok {
				return
			}
			if err := s.app.ctrl.Remove(id); err != nil {
				s.app.showError(err)
			}
		}, s.app.window)
	})
	remove.Importance = widget.DangerImportance

	explanation := widget.NewLabel(firstLine(rec.Explanation))
	explanation.Truncation = fyne.TextTruncateEllipsis

	marker := widget.NewIcon(theme.FileImageIcon())
	if !rec.HasImage() {
		marker.SetResource(theme.BrokenImageIcon())
	}

	return container.NewBorder(nil, nil,
		container.NewHBox(marker, open),
		remove,
		explanation,
	)
}

func (s *libraryScreen) onStory() {
	s.app.goBackground(func(ctx context.Context) {
		if _, err := s.app.ctrl.GenerateStory(ctx); err != nil {
			s.app.logger.Debug("Story not written", "error", err)
		}
	})
}

// firstLine returns the first line of text
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
