// Package codec moves datasets across the binary boundary: Arrow IPC and
// msgpack encodings, optional xz compression and file helpers.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/trpl"
)

// ErrEncoding marks malformed payloads and failed round trips.
var ErrEncoding = dynamo.ErrEncoding

const (
	formatName    = "trplsim"
	formatVersion = 1
	rowOrder      = "time-major"
)

type Codec interface {
	Name() string
	Encode(d *trpl.Dataset) ([]byte, error)
	Decode(data []byte) (*trpl.Dataset, error)
}

// MismatchError reports the first row at which a decoded dataset differs
// from the one that was encoded.
type MismatchError struct {
	Codec string
	Row   int
	Field string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("codec %s: round trip differs at row %d (%s)", e.Codec, e.Row, e.Field)
}

func (e *MismatchError) Unwrap() error { return ErrEncoding }

var (
	xzMagic          = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	arrowStreamMagic = []byte{0xff, 0xff, 0xff, 0xff}
)

// ByName returns "arrow", "msgpack" or either with a "+xz" suffix.
func ByName(name string) (Codec, error) {
	base, compressed := strings.CutSuffix(strings.ToLower(name), "+xz")
	var c Codec
	switch base {
	case "", "arrow":
		c = Arrow{}
	case "msgpack":
		c = Msgpack{}
	default:
		return nil, fmt.Errorf("unknown codec: %s (available: arrow, msgpack, arrow+xz, msgpack+xz)", name)
	}
	if compressed {
		c = Compressed{Inner: c}
	}
	return c, nil
}

// Detect picks a codec from the payload's leading bytes.
func Detect(data []byte) (Codec, error) {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return Compressed{}, nil
	case bytes.HasPrefix(data, arrowStreamMagic):
		return Arrow{}, nil
	case len(data) > 0 && (data[0]&0xf0 == 0x80 || data[0] == 0xde || data[0] == 0xdf):
		return Msgpack{}, nil
	}
	return nil, fmt.Errorf("%w: unrecognised payload", ErrEncoding)
}

// Ext is the conventional file extension for c.
func Ext(c Codec) string {
	switch v := c.(type) {
	case Compressed:
		if v.Inner == nil {
			return ".xz"
		}
		return Ext(v.Inner) + ".xz"
	case Msgpack:
		return ".msgpack"
	default:
		return ".arrow"
	}
}

func WriteFile(path string, c Codec, d *trpl.Dataset) error {
	data, err := c.Encode(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// ReadFile decodes path with the codec its contents announce.
func ReadFile(path string) (*trpl.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	c, err := Detect(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Verify encodes and decodes d and reports the first difference. A
// mismatch is surfaced as a *MismatchError, never corrected.
func Verify(c Codec, d *trpl.Dataset) error {
	data, err := c.Encode(d)
	if err != nil {
		return err
	}
	back, err := c.Decode(data)
	if err != nil {
		return err
	}
	if row, field, differ := d.FirstDifference(back); differ {
		return &MismatchError{Codec: c.Name(), Row: row, Field: field}
	}
	return nil
}

func encodingError(op string, err error) error {
	if errors.Is(err, ErrEncoding) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrEncoding, op, err)
}
