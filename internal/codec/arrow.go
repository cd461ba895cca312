package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/san-kum/trplsim/internal/trpl"
)

// Arrow writes a single Arrow IPC stream with columns time (float64),
// wavelength (float64) and intensity (int64).
type Arrow struct{}

func (Arrow) Name() string { return "arrow" }

func datasetSchema() *arrow.Schema {
	md := arrow.NewMetadata(
		[]string{"format", "version", "order"},
		[]string{formatName, strconv.Itoa(formatVersion), rowOrder},
	)
	return arrow.NewSchema([]arrow.Field{
		{Name: "time", Type: arrow.PrimitiveTypes.Float64},
		{Name: "wavelength", Type: arrow.PrimitiveTypes.Float64},
		{Name: "intensity", Type: arrow.PrimitiveTypes.Int64},
	}, &md)
}

func (Arrow) Encode(d *trpl.Dataset) ([]byte, error) {
	mem := memory.NewGoAllocator()
	schema := datasetSchema()

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues(d.Times(), nil)
	b.Field(1).(*array.Float64Builder).AppendValues(d.Wavelengths(), nil)
	b.Field(2).(*array.Int64Builder).AppendValues(d.Intensities(), nil)

	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Write(rec); err != nil {
		return nil, encodingError("arrow write", err)
	}
	if err := w.Close(); err != nil {
		return nil, encodingError("arrow close", err)
	}
	return buf.Bytes(), nil
}

func (Arrow) Decode(data []byte) (*trpl.Dataset, error) {
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, encodingError("arrow open", err)
	}
	defer r.Release()

	if err := checkSchema(r.Schema()); err != nil {
		return nil, err
	}

	var (
		times, wavelengths []float64
		intensity          []int64
	)
	for r.Next() {
		rec := r.Record()
		t, ok1 := rec.Column(0).(*array.Float64)
		w, ok2 := rec.Column(1).(*array.Float64)
		in, ok3 := rec.Column(2).(*array.Int64)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("%w: unexpected column types", ErrEncoding)
		}
		if t.NullN()+w.NullN()+in.NullN() > 0 {
			return nil, fmt.Errorf("%w: null values in dataset columns", ErrEncoding)
		}
		times = append(times, t.Float64Values()...)
		wavelengths = append(wavelengths, w.Float64Values()...)
		intensity = append(intensity, in.Int64Values()...)
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, encodingError("arrow read", err)
	}

	d, err := trpl.FromColumns(times, wavelengths, intensity)
	if err != nil {
		return nil, encodingError("arrow rows", err)
	}
	return d, nil
}

func checkSchema(s *arrow.Schema) error {
	want := datasetSchema()
	if !s.Equal(want) {
		return fmt.Errorf("%w: schema %s does not match %s", ErrEncoding, s, want)
	}
	md := s.Metadata()
	if i := md.FindKey("format"); i < 0 || md.Values()[i] != formatName {
		return fmt.Errorf("%w: not a %s payload", ErrEncoding, formatName)
	}
	if i := md.FindKey("version"); i < 0 || md.Values()[i] != strconv.Itoa(formatVersion) {
		return fmt.Errorf("%w: unsupported payload version", ErrEncoding)
	}
	if i := md.FindKey("order"); i >= 0 && md.Values()[i] != rowOrder {
		return fmt.Errorf("%w: unsupported row order %q", ErrEncoding, md.Values()[i])
	}
	return nil
}
