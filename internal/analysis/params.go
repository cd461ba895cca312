package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingParameter indicates a required workflow input was not given.
var ErrMissingParameter = errors.New("analysis: missing parameter")

type Params struct {
	File            string      `yaml:"file" json:"file"`
	RR              string      `yaml:"RR" json:"RR"`
	RL              string      `yaml:"RL" json:"RL"`
	OutputDir       string      `yaml:"outputdir" json:"outputdir"`
	WavelengthRange *[2]float64 `yaml:"wavelength_range" json:"wavelength_range"`
	DumpCSV         *bool       `yaml:"dump_csv" json:"dump_csv"`
}

// Dump reports whether CSV output is enabled. Unset means yes.
func (p Params) Dump() bool {
	return p.DumpCSV == nil || *p.DumpCSV
}

// Window returns the wavelength range, if any, with lo <= hi.
func (p Params) Window() (lo, hi float64, ok bool) {
	if p.WavelengthRange == nil {
		return 0, 0, false
	}
	lo, hi = p.WavelengthRange[0], p.WavelengthRange[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

func (p Params) Validate(notebook string) error {
	switch notebook {
	case CarrierRelaxation:
		if p.File == "" {
			return fmt.Errorf("%w: %s needs file", ErrMissingParameter, notebook)
		}
	case SpinRelaxation:
		if p.RR == "" || p.RL == "" {
			return fmt.Errorf("%w: %s needs RR and RL", ErrMissingParameter, notebook)
		}
	}
	return nil
}

// outputDir resolves where CSVs go and creates it on first use.
func (p Params) outputDir() (string, error) {
	if p.OutputDir == "" {
		return os.Getwd()
	}
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return p.OutputDir, nil
}

var datasetExts = []string{".xz", ".arrow", ".msgpack"}

// Stem is the file name without directory or dataset extensions.
func Stem(path string) string {
	name := filepath.Base(path)
	for _, ext := range datasetExts {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
