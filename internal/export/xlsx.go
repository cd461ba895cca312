package export

import (
	"fmt"
	"io"

	"github.com/san-kum/trplsim/internal/trpl"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	decaySheet    = "Decay"
	spectrumSheet = "Spectrum"
	countsSheet   = "Counts"
)

// Summary is written as key/value rows on the first sheet.
type Summary [][2]string

// WriteXLSX writes a workbook with a summary, the decay curve, the
// spectrum and the full count matrix (wavelength rows, time columns).
func WriteXLSX(w io.Writer, d *trpl.Dataset, summary Summary) error {
	f, err := buildWorkbook(d, summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, d *trpl.Dataset, summary Summary) error {
	f, err := buildWorkbook(d, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func buildWorkbook(d *trpl.Dataset, summary Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, *trpl.Dataset, Summary) error{
		writeSummary, writeDecay, writeSpectrum, writeCounts,
	}
	for _, step := range steps {
		if err := step(f, d, summary); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSummary(f *excelize.File, d *trpl.Dataset, summary Summary) error {
	rows := append(Summary{
		{"rows", fmt.Sprint(d.Len())},
		{"times", fmt.Sprint(len(d.TimeAxis()))},
		{"wavelengths", fmt.Sprint(len(d.WavelengthAxis()))},
		{"sum", fmt.Sprint(d.Sum())},
		{"max", fmt.Sprint(d.Max())},
	}, summary...)

	for i, kv := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
	}
	return nil
}

func writeColumns(f *excelize.File, sheet string, header []interface{}, xs, ys []float64) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i := range xs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{xs[i], ys[i]}); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeDecay(f *excelize.File, d *trpl.Dataset, _ Summary) error {
	return writeColumns(f, decaySheet, []interface{}{"time", "intensity"}, d.TimeAxis(), d.DecayCurve())
}

func writeSpectrum(f *excelize.File, d *trpl.Dataset, _ Summary) error {
	return writeColumns(f, spectrumSheet, []interface{}{"wavelength", "intensity"}, d.WavelengthAxis(), d.Spectrum())
}

func writeCounts(f *excelize.File, d *trpl.Dataset, _ Summary) error {
	if _, err := f.NewSheet(countsSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(countsSheet)
	if err != nil {
		return err
	}

	times, wls := d.TimeAxis(), d.WavelengthAxis()
	header := make([]interface{}, len(times)+1)
	header[0] = "wavelength \\ time"
	for j, t := range times {
		header[j+1] = t
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	nw := len(wls)
	row := make([]interface{}, len(times)+1)
	for i, w := range wls {
		row[0] = w
		for j := range times {
			row[j+1] = d.Intensity(j*nw + i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
