package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/lingopop/internal/session"
)

// setupKeyboardShortcuts installs the window's hotkeys. Shortcuts are
// ignored while an input field has focus, except Escape.
func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			if a.window.Canvas().Focused() != nil {
				a.window.Canvas().Unfocus()
				return
			}
			a.goBack()
			return
		}

		if a.window.Canvas().Focused() != nil {
			return
		}

		a.handleShortcutKey(ev.Name)
	})
}

// goBack leaves the current screen the way its back button does
func (a *Application) goBack() {
	var err error
	switch a.current.Screen {
	case session.ScreenResult:
		err = a.ctrl.Back()
	case session.ScreenLibrary:
		err = a.ctrl.BackToSearch()
	case session.ScreenStudy:
		err = a.ctrl.ExitStudy()
	}
	if err != nil {
		a.logger.Debug("Back not available", "screen", a.current.Screen.String(), "error", err)
	}
}

// handleShortcutKey handles the actual shortcut action
func (a *Application) handleShortcutKey(key fyne.KeyName) {
	switch key {
	case fyne.KeyH: // Show hotkeys
		a.onShowHotkeys()
		return
	case fyne.KeyL: // Toggle log panel
		a.toggleLogPanel()
		return
	case fyne.KeyQ: // Quit application
		a.window.Close()
		return
	}

	switch a.current.Screen {
	case session.ScreenSearch:
		switch key {
		case fyne.KeySlash, fyne.KeyF:
			a.search.focus()
		case fyne.KeyN:
			a.openLibrary()
		}

	case session.ScreenResult:
		switch key {
		case fyne.KeyS:
			a.result.onToggleSave()
		case fyne.KeyN:
			a.openLibrary()
		case fyne.KeyP:
			a.result.audioPlayer.Play()
		case fyne.KeyC:
			a.result.focusChat()
		}

	case session.ScreenLibrary:
		switch key {
		case fyne.KeyT:
			if !a.library.studyButton.Disabled() {
				_ = a.ctrl.OpenStudy()
			}
		case fyne.KeyX:
			if !a.library.exportButton.Disabled() {
				a.onExportToAnki()
			}
		case fyne.KeyI:
			a.onImport()
		}

	case session.ScreenStudy:
		switch key {
		case fyne.KeyLeft:
			a.study.onPrev()
		case fyne.KeyRight:
			a.study.onNext()
		case fyne.KeySpace, fyne.KeyUp, fyne.KeyDown:
			a.study.onFlip()
		case fyne.KeyP:
			a.study.audioPlayer.Play()
		}
	}
}

func (a *Application) openLibrary() {
	if err := a.ctrl.OpenLibrary(); err != nil {
		a.showError(err)
	}
}

// onShowHotkeys displays a dialog with all available keyboard shortcuts
func (a *Application) onShowHotkeys() {
	hotkeys := `[Project Page: https://codeberg.org/snonux/lingopop](https://codeberg.org/snonux/lingopop)

---

## Search
**/** or **f** Focus the search box  
**Enter** Look it up  
**n** Open notebook  

## Result
**s** Save or unsave  
**p** Listen  
**c** Ask the tutor  
**Esc** Back to search  

## Notebook
**t** Study flashcards  
**i** Import words from a file  
**x** Export to Anki  
**Esc** Back to search  

## Study
**←** Previous card  
**→** Next card  
**Space** Flip card  
**p** Listen  
**Esc** Back to notebook  

## General
**l** Show or hide log messages  
**h** Show hotkeys  
**q** Quit application`

	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(520, 480))

	d := dialog.NewCustom("Keyboard Shortcuts", "Close", scroll, a.window)
	d.Show()
}
