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
)

// quickTags are shortcuts shown below the search box
var quickTags = []string{"Hello", "Delicious", "Where is the subway?"}

// searchScreen holds the query box
type searchScreen struct {
	app     *Application
	content fyne.CanvasObject

	languageLabel *widget.Label
	queryInput    *CustomEntry
	submitButton  *ttwidget.Button
	libraryButton *ttwidget.Button
	tagButtons    []*widget.Button
	progress      *widget.ProgressBarInfinite
	errorLabel    *widget.Label
}

func newSearchScreen(a *Application) *searchScreen {
	s := &searchScreen{app: a}

	s.languageLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	s.queryInput = NewCustomEntry()
	s.queryInput.SetPlaceHolder("Type a word or phrase...")
	s.queryInput.OnChanged = func(text string) {
		a.ctrl.SetQuery(text)
	}
	s.queryInput.OnSubmitted = func(text string) {
		s.submit(text)
	}
	s.queryInput.SetOnEscape(func() {
		a.window.Canvas().Unfocus()
	})

	s.submitButton = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), func() {
		s.submit(s.queryInput.Text)
	})
	s.submitButton.Importance = widget.HighImportance

	s.libraryButton = ttwidget.NewButtonWithIcon("Notebook", theme.FolderOpenIcon(), func() {
		if err := a.ctrl.OpenLibrary(); err != nil {
			a.showError(err)
		}
	})

	tags := container.NewHBox()
	for _, tag := range quickTags {
		tag := tag
		btn := widget.NewButton(tag, func() {
			s.queryInput.SetText(tag)
			s.submit(tag)
		})
		btn.Importance = widget.LowImportance
		s.tagButtons = append(s.tagButtons, btn)
		tags.Add(btn)
	}

	s.progress = widget.NewProgressBarInfinite()
	s.progress.Hide()

	s.errorLabel = widget.NewLabel("")
	s.errorLabel.Importance = widget.DangerImportance
	s.errorLabel.Wrapping = fyne.TextWrapWord
	s.errorLabel.Hide()

	title := canvas.NewText("What do you want to learn today?", theme.Color(theme.ColorNameForeground))
	title.TextSize = 22
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	inputSection := container.NewBorder(nil, nil, nil, s.submitButton, s.queryInput)

	center := container.NewVBox(
		title,
		s.languageLabel,
		inputSection,
		container.NewCenter(tags),
		s.progress,
		s.errorLabel,
	)

	toolbar := container.NewBorder(nil, nil, nil, s.libraryButton)

	s.content = container.NewBorder(
		toolbar,
		nil, nil, nil,
		container.NewPadded(container.NewVBox(widget.NewLabel(""), center)),
	)
	return s
}

func (s *searchScreen) setupTooltips() {
	s.submitButton.SetToolTip("Look it up (Enter)")
	s.libraryButton.SetToolTip("Open notebook (n)")
}

func (s *searchScreen) update(st session.State) {
	s.languageLabel.SetText(st.Settings.Native.Label() + "  →  " + st.Settings.Target.Label())

	// The entry owns the text while typing; the session only ever clears it
	if st.Query == "" && s.queryInput.Text != "" {
		s.queryInput.SetText("")
	}

	if st.Loading {
		s.progress.Show()
		s.progress.Start()
		s.queryInput.Disable()
		s.submitButton.Disable()
		for _, b := range s.tagButtons {
			b.Disable()
		}
	} else {
		s.progress.Stop()
		s.progress.Hide()
		s.queryInput.Enable()
		s.submitButton.Enable()
		for _, b := range s.tagButtons {
			b.Enable()
		}
	}

	if st.Error != "" {
		s.errorLabel.SetText(st.Error)
		s.errorLabel.Show()
	} else {
		s.errorLabel.Hide()
	}
}

// submit runs the search in the background. The outcome arrives as state.
func (s *searchScreen) submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.app.window.Canvas().Unfocus()
	s.app.goBackground(func(ctx context.Context) {
		if err := s.app.ctrl.Search(ctx, text); err != nil {
			s.app.logger.Debug("Search ended without result", "term", text, "error", err)
		}
	})
}

// focus puts the cursor into the query box
func (s *searchScreen) focus() {
	s.app.window.Canvas().Focus(s.queryInput)
}
