// Package storage keeps generated datasets in per-run directories with a
// metadata.json, the encoded dataset and the simulated population trace.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/grid"
	"github.com/san-kum/trplsim/internal/noise"
	"github.com/san-kum/trplsim/internal/physics"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
)

const (
	metadataFile   = "metadata.json"
	populationFile = "population.csv"
	datasetStem    = "dataset"
)

// ErrRunNotFound is returned when no run matches an identifier.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID         string                `json:"id"`
	Name       string                `json:"name,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
	Seed       int64                 `json:"seed"`
	Lambda0    float64               `json:"lambda0"`
	Sigma      float64               `json:"sigma"`
	Xi         float64               `json:"xi"`
	Tau        float64               `json:"tau"`
	Grid       grid.Spec             `json:"grid"`
	Pulse      physics.GaussianPulse `json:"pulse"`
	Noise      noise.Options         `json:"noise"`
	Integrator string                `json:"integrator"`
	Codec      string                `json:"codec"`
	Dataset    string                `json:"dataset"`
	Checksum   string                `json:"checksum"`
	Rows       int                   `json:"rows"`
	Sum        int64                 `json:"sum"`
	Max        int64                 `json:"max"`
	Steps      int                   `json:"steps"`
	Metrics    map[string]float64    `json:"metrics"`
}

// NewRunID returns a fresh "run_<uuid>" identifier.
func NewRunID() string {
	return fmt.Sprintf("run_%s", uuid.New().String())
}

// Save writes the dataset with c, its checksum and the population trace.
// trace may be nil. A failed save leaves no run directory behind.
func (s *Store) Save(name string, p synth.Params, d *trpl.Dataset, trace *synth.Trace, c codec.Codec) (string, error) {
	runID := NewRunID()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, runID, name, p, d, trace, c); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir, runID, name string, p synth.Params, d *trpl.Dataset, trace *synth.Trace, c codec.Codec) error {
	datasetName := datasetStem + codec.Ext(c)
	datasetPath := filepath.Join(runDir, datasetName)
	if err := codec.WriteFile(datasetPath, c, d); err != nil {
		return err
	}
	sum, err := ChecksumFile(datasetPath)
	if err != nil {
		return err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  time.Now(),
		Seed:       p.Seed,
		Lambda0:    p.Lambda0,
		Sigma:      p.Sigma,
		Xi:         p.Xi,
		Tau:        p.Tau,
		Grid:       p.Grid,
		Pulse:      p.Pulse,
		Noise:      p.Noise,
		Integrator: p.Integrator,
		Codec:      c.Name(),
		Dataset:    datasetName,
		Checksum:   sum,
		Rows:       d.Len(),
		Sum:        d.Sum(),
		Max:        d.Max(),
	}
	if trace != nil {
		meta.Steps = trace.StepsTaken
		meta.Metrics = trace.Metrics
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}

	if trace != nil {
		if err := writePopulation(filepath.Join(runDir, populationFile), trace.Grid.Time, trace.Trajectory); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePopulation(path string, times, population []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writePopulationCSV(f, times, population); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePopulationCSV(out io.Writer, times, population []float64) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"time", "population"}); err != nil {
		return err
	}
	for i := range times {
		row := []string{
			strconv.FormatFloat(times[i], 'g', -1, 64),
			strconv.FormatFloat(population[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: corrupt metadata: %w", runID, err)
	}

	return &meta, nil
}

// DatasetPath is the dataset file of a stored run.
func (s *Store) DatasetPath(meta *RunMetadata) string {
	return filepath.Join(s.baseDir, meta.ID, meta.Dataset)
}

// LoadDataset verifies the stored checksum before decoding.
func (s *Store) LoadDataset(runID string) (*trpl.Dataset, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	path := s.DatasetPath(meta)
	if err := VerifyChecksum(path, meta.Checksum); err != nil {
		return nil, err
	}
	return codec.ReadFile(path)
}

// LoadPopulation reads the simulated population trace of a run.
func (s *Store) LoadPopulation(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, populationFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	values := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", populationFile, i+1, err)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", populationFile, i+1, err)
		}
		times = append(times, t)
		values = append(values, v)
	}

	return times, values, nil
}
