package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/webp"
)

// FetchOptions configures how references are resolved
type FetchOptions struct {
	Timeout      time.Duration // HTTP timeout for URL references
	MaxSizeBytes int64         // Maximum image size (0 = no limit)
}

// DefaultFetchOptions returns sensible defaults for image fetches
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		Timeout:      30 * time.Second,
		MaxSizeBytes: 10 * 1024 * 1024, // 10MB
	}
}

// Fetcher resolves image references
type Fetcher struct {
	client  *http.Client
	options *FetchOptions
}

// NewFetcher creates a new fetcher
func NewFetcher(options *FetchOptions) *Fetcher {
	if options == nil {
		options = DefaultFetchOptions()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: options.Timeout},
		options: options,
	}
}

// Fetch returns the raw bytes and MIME type behind ref
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("empty image reference")
	}
	if IsDataURI(ref) {
		mimeType, data, err := ParseDataURI(ref)
		if err != nil {
			return nil, "", err
		}
		if err := f.checkSize(int64(len(data))); err != nil {
			return nil, "", err
		}
		return data, mimeType, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if f.options.MaxSizeBytes > 0 {
		// Read one byte more than allowed to detect oversized images
		reader = io.LimitReader(resp.Body, f.options.MaxSizeBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := f.checkSize(int64(len(data))); err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// Decode fetches ref and decodes it into an image
func (f *Fetcher) Decode(ctx context.Context, ref string) (image.Image, error) {
	data, _, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Save writes the image behind ref to dir using baseName plus an extension
// matching its type, and returns the written path
func (f *Fetcher) Save(ctx context.Context, ref, dir, baseName string) (string, error) {
	data, mimeType, err := f.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, baseName+Extension(mimeType))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func (f *Fetcher) checkSize(n int64) error {
	if f.options.MaxSizeBytes > 0 && n > f.options.MaxSizeBytes {
		return fmt.Errorf("image exceeds maximum size of %d bytes", f.options.MaxSizeBytes)
	}
	return nil
}
