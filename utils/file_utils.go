package utils

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// Maximum upload size (10MB)
	maxFileSize = 10 * 1024 * 1024
	// Proof images wider than this are scaled down before upload
	maxImageWidth = 1600
	jpegQuality   = 85
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// CleanFilename removes any potentially dangerous characters from the filename
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	return unsafeFilenameChars.ReplaceAllString(filename, "")
}

// JPEGName swaps the extension of filename for .jpg.
func JPEGName(filename string) string {
	name := CleanFilename(filename)
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}

// NormalizeImage decodes an uploaded image, applies its EXIF orientation, scales it down to
// at most maxImageWidth pixels wide and re-encodes it as JPEG.
func NormalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
