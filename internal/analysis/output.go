package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// table is one CSV file: a header and equally long float columns.
type table struct {
	name    string
	header  []string
	columns [][]float64
}

// dump writes the tables into the output directory unless p disables it.
func dump(p Params, tables ...table) ([]string, error) {
	if !p.Dump() {
		return nil, nil
	}
	dir, err := p.outputDir()
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeTable(path, t); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeTable(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		return err
	}

	rows := 0
	if len(t.columns) > 0 {
		rows = len(t.columns[0])
	}
	record := make([]string, len(t.columns))
	for r := 0; r < rows; r++ {
		for c, col := range t.columns {
			record[c] = formatValue(col[r])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
