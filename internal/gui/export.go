package gui

import (
	"context"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/lingopop/internal"
	"codeberg.org/snonux/lingopop/internal/anki"
	"codeberg.org/snonux/lingopop/internal/batch"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

// onExportToAnki asks for format and location and exports the notebook
func (a *Application) onExportToAnki() {
	records := a.ctrl.State().Library
	if len(records) == 0 {
		dialog.ShowInformation("No Cards", "Your notebook is empty. Save some words first!", a.window)
		return
	}

	formatOptions := []string{"APKG (Recommended)", "CSV (Legacy)"}
	formatSelect := widget.NewSelect(formatOptions, nil)
	formatSelect.SetSelected(formatOptions[0])

	deckNameEntry := widget.NewEntry()
	deckNameEntry.SetPlaceHolder(anki.DefaultDeckName)

	audioCheck := widget.NewCheck("Include pronunciation audio", nil)
	if a.config.Speech == nil {
		audioCheck.Disable()
	}

	selectedDir := a.config.ExportDir
	dirLabel := widget.NewLabel(selectedDir)

	dirButton := widget.NewButton("Browse...", func() {
		folderDialog := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil || dir == nil {
				return
			}
			selectedDir = dir.Path()
			dirLabel.SetText(selectedDir)
		}, a.window)

		if uri, err := storage.ParseURI("file://" + selectedDir); err == nil {
			if listableURI, ok := uri.(fyne.ListableURI); ok {
				folderDialog.SetLocation(listableURI)
			}
		}

		folderDialog.Show()
	})

	content := container.NewVBox(
		widget.NewLabel("Export Format:"),
		formatSelect,
		widget.NewSeparator(),
		widget.NewLabel("Deck Name:"),
		deckNameEntry,
		audioCheck,
		widget.NewSeparator(),
		widget.NewLabel("Export Directory:"),
		container.NewBorder(nil, nil, nil, dirButton, dirLabel),
		widget.NewLabel(""),
		widget.NewRichTextFromMarkdown("**APKG**: Complete package with media files included\n**CSV**: Text only, media is written next to the file"),
	)

	customDialog := dialog.NewCustomConfirm("Export to Anki", "Export", "Cancel", content, func(export bool) {
		if !export {
			return
		}

		deckName := deckNameEntry.Text
		if deckName == "" {
			deckName = anki.DefaultDeckName
		}
		csv := formatSelect.Selected != formatOptions[0]

		filename := internal.SanitizeFilename(deckName) + ".apkg"
		if csv {
			filename = "anki_import.csv"
		}

		opts := anki.ExportOptions{
			OutputPath: filepath.Join(selectedDir, filename),
			DeckName:   deckName,
			CSV:        csv,
		}
		if audioCheck.Checked {
			opts.Voice = catalog.VoiceFor(a.current.Settings.Target)
		}
		a.runExport(records, opts, audioCheck.Checked)
	}, a.window)

	customDialog.Resize(fyne.NewSize(420, 340))
	customDialog.Show()
}

// runExport exports in the background and reports in the status bar
func (a *Application) runExport(records []term.Record, opts anki.ExportOptions, withAudio bool) {
	a.setStatus(fmt.Sprintf("Exporting %d cards...", len(records)))

	exporter := a.exporter
	if !withAudio {
		exporter = anki.NewExporter(a.fetcher, nil, a.logger)
	}

	a.goBackground(func(ctx context.Context) {
		stats, err := exporter.Export(ctx, records, opts)

		fyne.Do(func() {
			if err != nil {
				a.showError(fmt.Errorf("Failed to export: %w", err))
				return
			}
			a.setStatus(fmt.Sprintf("Exported %d cards to %s (%d with audio, %d with images)",
				stats.Cards, opts.OutputPath, stats.WithAudio, stats.WithImages))
		})
	})
}

// onImport reads a word list and looks every word up
func (a *Application) onImport() {
	imagesCheck := widget.NewCheck("Also paint pictures (slower)", nil)

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		terms, err := batch.ReadBatchFile(path)
		if err != nil {
			a.showError(err)
			return
		}
		if len(terms) == 0 {
			dialog.ShowInformation("Import", "No words found in "+filepath.Base(path), a.window)
			return
		}
		a.runImport(terms, imagesCheck.Checked)
	}, a.window)
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".txt", ".csv"}))

	dialog.ShowCustomConfirm("Import words", "Choose file...", "Cancel",
		container.NewVBox(
			wrappedLabel("One word or phrase per line. Lines starting with # are ignored."),
			imagesCheck,
		),
		func(ok bool) {
			if ok {
				fileDialog.Show()
			}
		}, a.window)
}

func (a *Application) runImport(terms []string, images bool) {
	total := len(terms)
	a.setStatus(fmt.Sprintf("Importing %d words...", total))

	a.goBackground(func(ctx context.Context) {
		done := 0
		_, summary, err := a.ctrl.Import(ctx, terms, batch.Config{
			Images: images,
			OnUpdate: func(job batch.Job) {
				if job.Status == batch.StatusProcessing || job.Status == batch.StatusQueued {
					return
				}
				fyne.Do(func() {
					done++
					a.setStatus(fmt.Sprintf("Importing %d/%d: %s (%s)", done, total, job.Term, job.Status))
				})
			},
		})

		fyne.Do(func() {
			if err != nil {
				a.showError(fmt.Errorf("Import failed: %w", err))
				return
			}
			dialog.ShowInformation("Import finished",
				fmt.Sprintf("Imported %d, skipped %d, failed %d", summary.Completed, summary.Skipped, summary.Failed),
				a.window)
		})
	})
}
