package image

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// PlaceholderURL is shown when no illustration could be generated
const PlaceholderURL = "https://picsum.photos/400/400?blur=2"

// DataURI encodes data as a base64 data URI
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether ref carries its image inline
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// IsPlaceholder reports whether ref is the fallback illustration
func IsPlaceholder(ref string) bool {
	return ref == PlaceholderURL
}

// ParseDataURI extracts the MIME type and payload of a data URI
func ParseDataURI(ref string) (string, []byte, error) {
	if !IsDataURI(ref) {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing payload")
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
		}
		return mimeType, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return mimeType, []byte(text), nil
}

// Extension returns a file extension for an image MIME type
func Extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
