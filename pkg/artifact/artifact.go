// Package artifact renders endpoint URLs into scannable QR code images.
//
// Artifacts are produced once, when an endpoint is created, and stored
// next to the endpoint record. Fetching an endpoint returns those stored
// bytes; nothing in this package is called on the read path.
package artifact

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/t569/scanapi/pkg/errors"
)

// MediaTypePNG is the media type of every artifact.
const MediaTypePNG = "image/png"

// Defaults match the original service: 10px modules, a 5 module margin
// and medium error correction, growing up to the largest QR version.
const (
	DefaultModuleSize = 10
	DefaultMargin     = 5
	DefaultMaxVersion = 40
)

// Encoder turns a payload into an image artifact.
type Encoder interface {
	Encode(payload string) ([]byte, error)
	MediaType() string
}

// Options configures a QREncoder.
type Options struct {
	// ModuleSize is the edge length in pixels of one QR module.
	ModuleSize int
	// Margin is the quiet zone width in modules.
	Margin int
	// RecoveryLevel is one of low, medium, high, highest.
	RecoveryLevel string
	// MaxVersion bounds the symbol size (1-40) and so the capacity.
	MaxVersion int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ModuleSize:    DefaultModuleSize,
		Margin:        DefaultMargin,
		RecoveryLevel: "medium",
		MaxVersion:    DefaultMaxVersion,
	}
}

// QREncoder implements Encoder with QR codes rendered as two-color PNGs.
type QREncoder struct {
	moduleSize int
	margin     int
	level      qrcode.RecoveryLevel
	maxVersion int
}

// NewQREncoder validates opts and returns an encoder. Zero fields take
// their defaults.
func NewQREncoder(opts Options) (*QREncoder, error) {
	def := DefaultOptions()
	if opts.ModuleSize == 0 {
		opts.ModuleSize = def.ModuleSize
	}
	if opts.MaxVersion == 0 {
		opts.MaxVersion = def.MaxVersion
	}
	if opts.RecoveryLevel == "" {
		opts.RecoveryLevel = def.RecoveryLevel
	}

	if opts.ModuleSize < 1 {
		return nil, errors.NewConfigError("artifact", "module size must be positive", nil)
	}
	if opts.Margin < 0 {
		return nil, errors.NewConfigError("artifact", "margin must not be negative", nil)
	}
	if opts.MaxVersion < 1 || opts.MaxVersion > 40 {
		return nil, errors.NewConfigError("artifact", "max version must be between 1 and 40", nil)
	}
	level, err := ParseRecoveryLevel(opts.RecoveryLevel)
	if err != nil {
		return nil, err
	}

	return &QREncoder{
		moduleSize: opts.ModuleSize,
		margin:     opts.Margin,
		level:      level,
		maxVersion: opts.MaxVersion,
	}, nil
}

// ParseRecoveryLevel maps a configuration string to a QR recovery level.
func ParseRecoveryLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "low", "l":
		return qrcode.Low, nil
	case "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return 0, errors.NewConfigError("artifact", "unknown recovery level "+s, nil)
	}
}

// MediaType implements Encoder.
func (e *QREncoder) MediaType() string {
	return MediaTypePNG
}

// Encode implements Encoder. It fails with an EncodingError when the
// payload does not fit in a symbol of at most the configured version.
func (e *QREncoder) Encode(payload string) ([]byte, error) {
	q, err := qrcode.New(payload, e.level)
	if err != nil {
		return nil, errors.NewEncodingError(len(payload), err.Error(), err)
	}
	if q.VersionNumber > e.maxVersion {
		return nil, errors.NewEncodingError(len(payload), "payload exceeds capacity of the configured maximum version", nil)
	}
	q.DisableBorder = true

	img := e.render(q.Bitmap())

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, errors.NewEncodingError(len(payload), "png encoding failed", err)
	}
	return buf.Bytes(), nil
}

// render draws the module bitmap with the configured module size and margin.
func (e *QREncoder) render(bitmap [][]bool) *image.Paletted {
	modules := len(bitmap)
	side := (modules + 2*e.margin) * e.moduleSize

	palette := color.Palette{color.White, color.Black}
	img := image.NewPaletted(image.Rect(0, 0, side, side), palette)

	offset := e.margin * e.moduleSize
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := offset + x*e.moduleSize
			y0 := offset + y*e.moduleSize
			for dy := 0; dy < e.moduleSize; dy++ {
				line := img.Pix[(y0+dy)*img.Stride+x0 : (y0+dy)*img.Stride+x0+e.moduleSize]
				for i := range line {
					line[i] = 1
				}
			}
		}
	}
	return img
}
