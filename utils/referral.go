package utils

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const qrCodeSize = 256

// ReferralLink builds the sign-up link that carries a user's referral code.
// A user's uid is their referral code.
func ReferralLink(publicURL, uid string) string {
	return strings.TrimRight(publicURL, "/") + "/auth?ref=" + url.QueryEscape(uid)
}

// ReferralQRCode renders content as a PNG QR code.
func ReferralQRCode(content string) ([]byte, error) {
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	qrCode, err = barcode.Scale(qrCode, qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return nil, fmt.Errorf("failed to encode QR code as PNG: %w", err)
	}
	return buffer.Bytes(), nil
}
