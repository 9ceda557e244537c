// Пакет qr отвечает за растеризацию QR-кодов.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// Level Q: restores up to ~25% of damaged modules. Fixed on purpose,
// scan reliability over density.
const errorCorrectionLevel = qrcode.High

var ErrEmptyPayload = errors.New("empty payload")

// Options controls the raster geometry of an encoded image.
type Options struct {
	Foreground color.Color
	Background color.Color
	ModuleSize int
	Margin     int
}

// PreviewOptions is the inline-preview preset.
func PreviewOptions() Options {
	return Options{
		ModuleSize: 8,
		Margin:     3,
		Foreground: color.Black,
		Background: color.White,
	}
}

// DownloadOptions is the attachment-download preset.
func DownloadOptions() Options {
	return Options{
		ModuleSize: 10,
		Margin:     3,
		Foreground: color.Black,
		Background: color.White,
	}
}

// Encode renders payload as a PNG QR code. The symbol version is picked
// automatically to fit the payload. Identical inputs produce identical
// bytes.
func Encode(payload string, opts Options) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	code, err := qrcode.New(payload, errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("error building QR matrix: %w", err)
	}
	code.DisableBorder = true

	grid := code.Bitmap()
	modules := len(grid)
	side := (modules + 2*opts.Margin) * opts.ModuleSize

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, opts.Background)
		}
	}

	offset := opts.Margin * opts.ModuleSize
	for row := range grid {
		for col := range grid[row] {
			if !grid[row][col] {
				continue
			}
			for dy := 0; dy < opts.ModuleSize; dy++ {
				for dx := 0; dx < opts.ModuleSize; dx++ {
					img.Set(offset+col*opts.ModuleSize+dx, offset+row*opts.ModuleSize+dy, opts.Foreground)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}
