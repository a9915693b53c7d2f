package gui

import (
	"context"
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	lpimage "codeberg.org/snonux/lingopop/internal/image"
)

// ImageDisplay is a custom widget showing an illustration by reference
// (data URI or URL). References are decoded in the background.
type ImageDisplay struct {
	widget.BaseWidget

	container   *fyne.Container
	imageCanvas *canvas.Image
	imageLabel  *widget.Label

	fetcher *lpimage.Fetcher

	mu         sync.Mutex
	currentRef string
	generation int
}

// NewImageDisplay creates a new image display widget
func NewImageDisplay(fetcher *lpimage.Fetcher) *ImageDisplay {
	d := &ImageDisplay{fetcher: fetcher}

	d.imageCanvas = canvas.NewImageFromResource(nil)
	d.imageCanvas.FillMode = canvas.ImageFillContain
	d.imageCanvas.SetMinSize(fyne.NewSize(240, 240))

	d.imageLabel = widget.NewLabel("No image")
	d.imageLabel.Alignment = fyne.TextAlignCenter

	d.container = container.NewBorder(
		nil,
		d.imageLabel,
		nil, nil,
		d.imageCanvas,
	)

	d.ExtendBaseWidget(d)
	return d
}

// CreateRenderer implements fyne.Widget
func (d *ImageDisplay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.container)
}

// SetRef shows the image behind ref. An empty ref means the image is still
// being painted; the placeholder reference shows the fallback text.
func (d *ImageDisplay) SetRef(ctx context.Context, ref string) {
	d.mu.Lock()
	if ref == d.currentRef && ref != "" {
		d.mu.Unlock()
		return
	}
	d.currentRef = ref
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	switch {
	case ref == "":
		d.SetGenerating()
		return
	case lpimage.IsPlaceholder(ref) || d.fetcher == nil:
		d.showImage(nil, "No picture this time")
		return
	}

	d.showImage(nil, "Loading picture...")
	go func() {
		img, err := d.fetcher.Decode(ctx, ref)

		fyne.Do(func() {
			d.mu.Lock()
			stale := gen != d.generation
			d.mu.Unlock()
			if stale {
				return
			}
			if err != nil {
				d.showImage(nil, fmt.Sprintf("Error loading image: %v", err))
				return
			}
			d.showImage(img, "")
		})
	}()
}

func (d *ImageDisplay) showImage(img image.Image, label string) {
	d.imageCanvas.Image = img
	d.imageCanvas.Refresh()
	d.imageLabel.SetText(label)
	if label == "" {
		d.imageLabel.Hide()
	} else {
		d.imageLabel.Show()
	}
}

// Clear clears the display
func (d *ImageDisplay) Clear() {
	d.mu.Lock()
	d.currentRef = ""
	d.generation++
	d.mu.Unlock()
	d.showImage(nil, "No image")
}

// SetGenerating shows a generating status
func (d *ImageDisplay) SetGenerating() {
	d.showImage(nil, "Painting a picture...")
}

// sectionTitle returns a bold heading label
func sectionTitle(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}

// wrappedLabel returns a label that wraps at word boundaries
func wrappedLabel(text string) *widget.Label {
	l := widget.NewLabel(text)
	l.Wrapping = fyne.TextWrapWord
	return l
}
