package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/plant-identifier/internal/utils"
)

// DefaultQuality is the JPEG quality used when re-encoding a resized image
const DefaultQuality = 85

// maxDownloadSize caps images fetched from a URL
const maxDownloadSize = 20 << 20

// Processor prepares image bytes before they are sent to a vision model
type Processor struct {
	maxDimension int
	quality      int
}

// NewProcessor creates a new image processor. A maxDimension of zero disables
// resizing and every image is passed through untouched.
func NewProcessor(maxDimension, quality int) *Processor {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{
		maxDimension: maxDimension,
		quality:      quality,
	}
}

// DecodeBase64 decodes the base64 payload of an upload. Whitespace and missing
// padding are tolerated.
func DecodeBase64(data string) ([]byte, error) {
	data = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, data)

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("failed to decode base64 image: %w", err)
}

// Prepare downscales oversized images so their long side fits maxDimension and
// re-encodes them as JPEG. Images that are small enough, that cannot be decoded,
// or any image when resizing is disabled, are returned unchanged together with
// the caller's MIME type.
func (p *Processor) Prepare(data []byte, mimeType string) ([]byte, string, error) {
	if p.maxDimension <= 0 {
		return data, mimeType, nil
	}

	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return data, mimeType, nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= p.maxDimension && h <= p.maxDimension {
		return data, mimeType, nil
	}

	if w >= h {
		img = imaging.Resize(img, p.maxDimension, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, p.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// LoadImageSmart loads image bytes from either a file path or URL and reports
// their MIME type
func (p *Processor) LoadImageSmart(source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImage reads an image file from disk
func (p *Processor) LoadImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := detectMimeType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		if !utils.IsImageFile(path) {
			return nil, "", fmt.Errorf("image: unknown format for %s", path)
		}
		mimeType = utils.MimeTypeFromExtension(path)
	}

	return data, mimeType, nil
}

// LoadImageFromURL downloads an image
func (p *Processor) LoadImageFromURL(imageURL string) ([]byte, string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Plant-Identifier/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return data, contentType, nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

func detectMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}
