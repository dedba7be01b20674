// utils/validation.go
package utils

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// CleanText trims input, drops control characters and caps it at limit runes.
// Values are stored as typed; escaping happens where they are rendered.
func CleanText(input string, limit int) string {
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if limit > 0 {
		if runes := []rune(input); len(runes) > limit {
			input = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return input
}

// SanitizePhone strips everything but digits and a leading +.
func SanitizePhone(phone string) (string, error) {
	phone = regexp.MustCompile(`[^\d+]`).ReplaceAllString(strings.TrimSpace(phone), "")
	if len(phone) < 6 || len(phone) > 16 {
		return "", errors.New("invalid phone number length")
	}
	return phone, nil
}

// ValidateImageUpload checks the size and extension of an uploaded proof image.
func ValidateImageUpload(file *multipart.FileHeader) error {
	if file.Size > maxFileSize {
		return errors.New("file too large")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return errors.New("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// Caps applied to free text before it is stored.
const (
	MaxShortText = 64
	MaxLineText  = 256
	MaxLongText  = 2000
)
