package gui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/lingopop/internal"
	"codeberg.org/snonux/lingopop/internal/anki"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/session"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	ctrl     *session.Controller
	fetcher  *image.Fetcher
	exporter *anki.Exporter
	config   *Config
	logger   *slog.Logger

	// Screens
	onboarding *onboardingScreen
	search     *searchScreen
	result     *resultScreen
	library    *libraryScreen
	study      *studyScreen

	body        *fyne.Container
	statusLabel *widget.Label
	logPanel    *LogPanel
	logToggle   *ttwidget.Button
	logVisible  bool

	// Last rendered state
	lastVersion uint64
	lastScreen  session.Screen
	rendered    bool
	current     session.State

	unsubscribe func()

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds GUI application configuration
type Config struct {
	Controller *session.Controller
	Logger     *slog.Logger

	// Speech synthesizes audio for exported cards
	Speech anki.SpeechSynthesizer

	// ExportDir is the default directory for Anki exports
	ExportDir string
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		ExportDir: filepath.Join(homeDir, "Downloads"),
	}
}

// New creates a new GUI application driven by config.Controller
func New(config *Config) (*Application, error) {
	if config == nil || config.Controller == nil {
		return nil, fmt.Errorf("session controller is required")
	}
	if config.ExportDir == "" {
		config.ExportDir = DefaultConfig().ExportDir
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.snonux.lingopop")
	myApp.SetIcon(GetAppIcon())

	fetcher := image.NewFetcher(image.DefaultFetchOptions())

	a := &Application{
		app:      myApp,
		ctrl:     config.Controller,
		fetcher:  fetcher,
		exporter: anki.NewExporter(fetcher, config.Speech, logger),
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupUI()
	return a, nil
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("LingoPop v%s", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(900, 760))

	a.onboarding = newOnboardingScreen(a)
	a.search = newSearchScreen(a)
	a.result = newResultScreen(a)
	a.library = newLibraryScreen(a)
	a.study = newStudyScreen(a)

	a.body = container.NewStack()

	a.statusLabel = widget.NewLabel("Ready")
	a.statusLabel.TextStyle = fyne.TextStyle{Italic: true}
	a.statusLabel.Truncation = fyne.TextTruncateEllipsis

	a.logPanel = NewLogPanel()
	a.logPanel.Hide()
	a.logToggle = ttwidget.NewButtonWithIcon("", theme.ListIcon(), a.toggleLogPanel)
	helpButton := ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	statusSection := container.NewVBox(
		a.logPanel,
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, container.NewHBox(a.logToggle, helpButton), a.statusLabel),
	)

	content := container.NewBorder(nil, statusSection, nil, nil, a.body)

	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Tooltips need the tooltip layer
	a.logToggle.SetToolTip("Show log messages (l)")
	helpButton.SetToolTip("Show hotkeys (h)")
	a.search.setupTooltips()
	a.result.setupTooltips()
	a.library.setupTooltips()
	a.study.setupTooltips()

	a.window.SetOnClosed(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		a.logPanel.StopCapture()
		a.cancel()
		a.wg.Wait()
		a.ctrl.Close()
	})

	a.app.Lifecycle().SetOnStarted(func() {
		a.logPanel.StartCapture()
		a.unsubscribe = a.ctrl.Subscribe(func(s session.State) {
			fyne.Do(func() {
				a.render(s)
			})
		})
	})

	a.setupKeyboardShortcuts()
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// render applies a published state. Snapshots older than the one on screen
// are dropped.
func (a *Application) render(s session.State) {
	if a.rendered && s.Version <= a.lastVersion {
		return
	}
	a.lastVersion = s.Version
	a.current = s

	if !a.rendered || s.Screen != a.lastScreen {
		if s.Screen == session.ScreenResult {
			a.result.reset()
		}
		a.showScreen(s.Screen)
		a.lastScreen = s.Screen
		a.rendered = true
	}

	switch s.Screen {
	case session.ScreenOnboarding:
		a.onboarding.update(s)
	case session.ScreenSearch:
		a.search.update(s)
	case session.ScreenResult:
		a.result.update(s)
	case session.ScreenLibrary:
		a.library.update(s)
	case session.ScreenStudy:
		a.study.update(s)
	}

	a.updateStatus(s)
}

func (a *Application) showScreen(screen session.Screen) {
	var obj fyne.CanvasObject
	switch screen {
	case session.ScreenOnboarding:
		obj = a.onboarding.content
	case session.ScreenSearch:
		obj = a.search.content
	case session.ScreenResult:
		obj = a.result.content
	case session.ScreenLibrary:
		obj = a.library.content
	case session.ScreenStudy:
		obj = a.study.content
	default:
		return
	}
	a.body.Objects = []fyne.CanvasObject{obj}
	a.body.Refresh()
	a.window.Canvas().Unfocus()
	a.logger.Debug("Screen changed", "screen", screen.String())
}

// updateStatus shows what the session is doing
func (a *Application) updateStatus(s session.State) {
	switch {
	case s.Loading:
		a.statusLabel.SetText(fmt.Sprintf("Looking up '%s'...", s.Query))
	case s.ChatBusy:
		a.statusLabel.SetText("Waiting for a reply...")
	case s.StoryBusy:
		a.statusLabel.SetText("Weaving a story...")
	case s.Configured:
		a.statusLabel.SetText(fmt.Sprintf("%s %s → %s %s  |  %d saved words",
			s.Settings.Native.Flag, s.Settings.Native.Name,
			s.Settings.Target.Flag, s.Settings.Target.Name,
			len(s.Library)))
	default:
		a.statusLabel.SetText("Ready")
	}
}

// setStatus shows a transient status message
func (a *Application) setStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
}

// goBackground runs fn on a tracked goroutine
func (a *Application) goBackground(fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
}

func (a *Application) toggleLogPanel() {
	a.logVisible = !a.logVisible
	if a.logVisible {
		a.logPanel.Show()
		a.logToggle.SetToolTip("Hide log messages (l)")
	} else {
		a.logPanel.Hide()
		a.logToggle.SetToolTip("Show log messages (l)")
	}
}
