package api

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"cafedesk/internal/domain"
)

// ImageURL resolves a stored image reference for display. Absolute URLs are
// returned as-is; server paths get forward slashes, a leading slash, and
// percent-encoding, then are joined to serverBase.
func ImageURL(serverBase, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	p := strings.ReplaceAll(ref, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(serverBase, "/") + (&url.URL{Path: p}).EscapedPath()
}

// LoadUpload reads an image from disk for a menu item form.
func LoadUpload(path string, maxWidth uint) (*domain.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return Downscale(&domain.Upload{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, maxWidth)
}

// Downscale shrinks JPEG and PNG uploads wider than maxWidth, keeping the
// aspect ratio. Other formats and maxWidth 0 pass through untouched.
func Downscale(up *domain.Upload, maxWidth uint) (*domain.Upload, error) {
	if up == nil || maxWidth == 0 {
		return up, nil
	}
	ct := up.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(up.Data)
	}
	if ct != "image/jpeg" && ct != "image/png" {
		return up, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if uint(cfg.Width) <= maxWidth {
		return up, nil
	}
	img, _, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	small := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if ct == "image/png" {
		err = png.Encode(&buf, small)
	} else {
		err = jpeg.Encode(&buf, small, &jpeg.Options{Quality: 80})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &domain.Upload{Filename: up.Filename, ContentType: ct, Data: buf.Bytes()}, nil
}
