package qr

import (
	"fmt"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// Codec renders short text tokens as scannable images.
type Codec interface {
	Encode(token string) ([]byte, error)
}

// PNGCodec renders through a staging file in TempDir. The file is removed on
// every return path.
type PNGCodec struct {
	Size    int
	Level   qrcode.RecoveryLevel
	TempDir string
}

func NewPNGCodec(size int, tempDir string) *PNGCodec {
	if size <= 0 {
		size = DefaultSize
	}
	return &PNGCodec{
		Size:    size,
		Level:   qrcode.Medium,
		TempDir: tempDir,
	}
}

func (c *PNGCodec) Encode(token string) (png []byte, err error) {
	if token == "" {
		return nil, fmt.Errorf("qr: empty token")
	}

	f, err := os.CreateTemp(c.TempDir, "qr-*.png")
	if err != nil {
		return nil, fmt.Errorf("qr: create staging file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("qr: close staging file: %w", err)
	}

	if err := qrcode.WriteFile(token, c.Level, c.Size, path); err != nil {
		return nil, fmt.Errorf("qr: render %d byte token: %w", len(token), err)
	}

	png, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("qr: read staging file: %w", err)
	}
	return png, nil
}
