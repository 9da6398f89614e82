package totp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
)

// DefaultQRSize is the edge length in pixels of rendered QR codes.
const DefaultQRSize = 200

// RenderQRDataURL renders uri as a PNG QR code and returns it as a
// data:image/png;base64 URI. size <= 0 selects [DefaultQRSize].
func RenderQRDataURL(uri string, size int) (string, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if !strings.HasPrefix(uri, "otpauth://") {
		return "", fmt.Errorf("not an otpauth uri")
	}
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("parse provisioning uri: %w", err)
	}
	img, err := key.Image(size, size)
	if err != nil {
		return "", fmt.Errorf("render qr image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
