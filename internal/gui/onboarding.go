package gui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/session"
)

// onboardingScreen lets the user pick their native and target languages
type onboardingScreen struct {
	app     *Application
	content fyne.CanvasObject

	nativeSelect *widget.Select
	targetSelect *widget.Select
	startButton  *widget.Button
	errorLabel   *widget.Label

	languages []catalog.Language
}

func newOnboardingScreen(a *Application) *onboardingScreen {
	s := &onboardingScreen{app: a, languages: catalog.All()}

	labels := make([]string, len(s.languages))
	for i, l := range s.languages {
		labels[i] = l.Label()
	}

	s.nativeSelect = widget.NewSelect(labels, func(string) { s.validate() })
	s.targetSelect = widget.NewSelect(labels, func(string) { s.validate() })

	s.errorLabel = widget.NewLabel("")
	s.errorLabel.Importance = widget.DangerImportance

	s.startButton = widget.NewButtonWithIcon("Start learning", theme.NavigateNextIcon(), s.onStart)
	s.startButton.Importance = widget.HighImportance

	title := canvas.NewText("LingoPop", theme.Color(theme.ColorNamePrimary))
	title.TextSize = 42
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	icon := canvas.NewImageFromResource(GetAppIcon())
	icon.FillMode = canvas.ImageFillContain
	icon.SetMinSize(fyne.NewSize(96, 96))

	form := widget.NewForm(
		widget.NewFormItem("I speak", s.nativeSelect),
		widget.NewFormItem("I want to learn", s.targetSelect),
	)

	s.content = container.NewCenter(container.NewVBox(
		icon,
		title,
		widget.NewLabelWithStyle("Learn words the fun way", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		layout.NewSpacer(),
		form,
		s.errorLabel,
		s.startButton,
	))
	return s
}

func (s *onboardingScreen) update(st session.State) {
	s.selectLanguage(s.nativeSelect, st.Settings.Native)
	s.selectLanguage(s.targetSelect, st.Settings.Target)
}

func (s *onboardingScreen) selectLanguage(sel *widget.Select, l catalog.Language) {
	if sel.Selected == "" && l.Code != "" {
		sel.SetSelected(l.Label())
	}
}

// selected maps a select's label back to its language
func (s *onboardingScreen) selected(sel *widget.Select) (catalog.Language, bool) {
	i := sel.SelectedIndex()
	if i < 0 || i >= len(s.languages) {
		return catalog.Language{}, false
	}
	return s.languages[i], true
}

// validate keeps the start button disabled while both languages are the same
func (s *onboardingScreen) validate() {
	native, okN := s.selected(s.nativeSelect)
	target, okT := s.selected(s.targetSelect)
	switch {
	case !okN || !okT:
		s.errorLabel.SetText("")
		s.startButton.Disable()
	case native.Code == target.Code:
		s.errorLabel.SetText(session.ErrSameLanguage.Error())
		s.startButton.Disable()
	default:
		s.errorLabel.SetText("")
		s.startButton.Enable()
	}
}

func (s *onboardingScreen) onStart() {
	native, okN := s.selected(s.nativeSelect)
	target, okT := s.selected(s.targetSelect)
	if !okN || !okT {
		return
	}

	if err := s.app.ctrl.ConfirmSettings(native, target); err != nil {
		if errors.Is(err, session.ErrSameLanguage) {
			s.errorLabel.SetText(err.Error())
			return
		}
		s.app.showError(err)
	}
}
