package services

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

// LinkQRCode renders content as a base64-encoded PNG QR code.
func LinkQRCode(content string, size int) (string, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
