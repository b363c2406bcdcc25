package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: empty content")
	ErrFailedToEncode = errors.New("qrcode: failed to encode")
)

// DefaultSize is the image edge in pixels used when none is given.
const DefaultSize = 256

// RecoveryLevel controls how much of the symbol can be damaged and still scan.
type RecoveryLevel = skipqrcode.RecoveryLevel

const (
	Low     RecoveryLevel = skipqrcode.Low
	Medium  RecoveryLevel = skipqrcode.Medium
	High    RecoveryLevel = skipqrcode.High
	Highest RecoveryLevel = skipqrcode.Highest
)

type options struct {
	size  int
	level RecoveryLevel
}

// Option customizes a generated image.
type Option func(*options)

// WithSize sets the image edge in pixels. Non-positive values keep the default.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithRecoveryLevel sets the error correction level.
func WithRecoveryLevel(l RecoveryLevel) Option {
	return func(o *options) { o.level = l }
}

// PNG encodes content as a QR code PNG image.
func PNG(content string, opts ...Option) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	o := options{size: DefaultSize, level: Medium}
	for _, opt := range opts {
		opt(&o)
	}
	img, err := skipqrcode.Encode(content, o.level, o.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncode, err)
	}
	return img, nil
}

// DataURI returns the PNG as a data URI suitable for an <img src>.
// E-mail clients render inline data URIs without fetching remote assets.
func DataURI(content string, opts ...Option) (string, error) {
	img, err := PNG(content, opts...)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}
