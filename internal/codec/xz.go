package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/san-kum/trplsim/internal/trpl"
	"github.com/ulikunitz/xz"
)

// Compressed wraps Inner with xz. A nil Inner is detected on decode and
// defaults to Arrow on encode.
type Compressed struct {
	Inner Codec
}

func (c Compressed) inner() Codec {
	if c.Inner == nil {
		return Arrow{}
	}
	return c.Inner
}

func (c Compressed) Name() string { return c.inner().Name() + "+xz" }

func (c Compressed) Encode(d *trpl.Dataset) ([]byte, error) {
	plain, err := c.inner().Encode(d)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, encodingError("xz writer", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, encodingError("xz write", err)
	}
	if err := w.Close(); err != nil {
		return nil, encodingError("xz close", err)
	}
	return buf.Bytes(), nil
}

func (c Compressed) Decode(data []byte) (*trpl.Dataset, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, encodingError("xz reader", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, encodingError("xz read", err)
	}

	inner := c.Inner
	if inner == nil {
		if inner, err = Detect(plain); err != nil {
			return nil, err
		}
		if _, nested := inner.(Compressed); nested {
			return nil, fmt.Errorf("%w: nested xz payload", ErrEncoding)
		}
	}
	return inner.Decode(plain)
}
