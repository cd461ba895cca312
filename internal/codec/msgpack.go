package codec

import (
	"fmt"

	"github.com/san-kum/trplsim/internal/trpl"
	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack stores the three columns as arrays in a single map.
type Msgpack struct{}

type msgpackPayload struct {
	Format     string    `msgpack:"format"`
	Version    int       `msgpack:"version"`
	Time       []float64 `msgpack:"time"`
	Wavelength []float64 `msgpack:"wavelength"`
	Intensity  []int64   `msgpack:"intensity"`
}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Encode(d *trpl.Dataset) ([]byte, error) {
	data, err := msgpack.Marshal(&msgpackPayload{
		Format:     formatName,
		Version:    formatVersion,
		Time:       d.Times(),
		Wavelength: d.Wavelengths(),
		Intensity:  d.Intensities(),
	})
	if err != nil {
		return nil, encodingError("msgpack encode", err)
	}
	return data, nil
}

func (Msgpack) Decode(data []byte) (*trpl.Dataset, error) {
	var p msgpackPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, encodingError("msgpack decode", err)
	}
	if p.Format != formatName {
		return nil, fmt.Errorf("%w: not a %s payload", ErrEncoding, formatName)
	}
	if p.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported payload version %d", ErrEncoding, p.Version)
	}
	d, err := trpl.FromColumns(p.Time, p.Wavelength, p.Intensity)
	if err != nil {
		return nil, encodingError("msgpack rows", err)
	}
	return d, nil
}
