package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
)

func smallParams(seed int64) synth.Params {
	p := synth.DefaultParams()
	p.Grid.TimeCount = 60
	p.Grid.WavelengthCount = 40
	p.Seed = seed
	return p
}

func saveRun(t *testing.T, st *Store, seed int64, c codec.Codec) string {
	t.Helper()
	p := smallParams(seed)
	d, trace, err := synth.GenerateTrace(context.Background(), p)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	runID, err := st.Save("test", p, d, trace, c)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	return runID
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := saveRun(t, st, 42, codec.Arrow{})
	if !strings.HasPrefix(runID, "run_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Rows != 60*40 {
		t.Errorf("expected %d rows, got %d", 60*40, meta.Rows)
	}
	if meta.Codec != "arrow" || meta.Dataset != "dataset.arrow" {
		t.Errorf("unexpected codec/dataset %q %q", meta.Codec, meta.Dataset)
	}
	if meta.Metrics["bounded"] != 1 {
		t.Errorf("expected bounded metric 1, got %f", meta.Metrics["bounded"])
	}

	d, err := st.LoadDataset(runID)
	if err != nil {
		t.Fatalf("load dataset failed: %v", err)
	}
	if d.Sum() != meta.Sum || d.Max() != meta.Max {
		t.Errorf("dataset sum/max %d/%d, metadata %d/%d", d.Sum(), d.Max(), meta.Sum, meta.Max)
	}

	times, pop, err := st.LoadPopulation(runID)
	if err != nil {
		t.Fatalf("load population failed: %v", err)
	}
	if len(times) != 60 || len(pop) != 60 {
		t.Errorf("expected 60 population samples, got %d/%d", len(times), len(pop))
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	st := New(t.TempDir())
	runID := saveRun(t, st, 1, codec.Msgpack{})

	meta, _ := st.Load(runID)
	path := st.DatasetPath(meta)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := st.LoadDataset(runID); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestStore_ListAndFind(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v %v", runs, err)
	}

	saveRun(t, st, 1, codec.Arrow{})
	saveRun(t, st, 2, codec.Compressed{Inner: codec.Msgpack{}})

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	files, err := st.Find("")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 dataset files, got %v", files)
	}

	xz, err := st.Find("**/*.xz")
	if err != nil {
		t.Fatal(err)
	}
	if len(xz) != 1 || !strings.HasSuffix(xz[0], "dataset.msgpack.xz") {
		t.Errorf("unexpected xz matches %v", xz)
	}
}

func TestStore_Resolve(t *testing.T) {
	st := New(t.TempDir())
	runID := saveRun(t, st, 3, codec.Arrow{})
	meta, _ := st.Load(runID)
	want := st.DatasetPath(meta)

	tests := []string{
		runID,
		runID[:12],
		strings.TrimPrefix(runID, "run_")[:8],
		want,
	}
	for _, arg := range tests {
		got, err := st.Resolve(arg)
		if err != nil {
			t.Errorf("Resolve(%q): %v", arg, err)
			continue
		}
		if filepath.Clean(got) != filepath.Clean(want) {
			t.Errorf("Resolve(%q) = %q, want %q", arg, got, want)
		}
	}

	for _, arg := range []string{"run_nothing", "*", ""} {
		if _, err := st.Resolve(arg); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Resolve(%q): expected ErrRunNotFound, got %v", arg, err)
		}
	}

	if _, err := st.Load("run_missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

type failingCodec struct{ codec.Arrow }

func (failingCodec) Encode(*trpl.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func TestStore_SaveFailureLeavesNoRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	p := smallParams(1)
	d, trace, err := synth.GenerateTrace(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save("broken", p, d, trace, failingCodec{}); err == nil {
		t.Fatal("expected save to fail")
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "run_") {
			t.Errorf("partial run directory %s left behind", e.Name())
		}
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestWritePopulationCSV_ReportsWriteError(t *testing.T) {
	err := writePopulationCSV(errWriter{}, []float64{0, 1}, []float64{0, 0.5})
	if err == nil {
		t.Fatal("expected write error")
	}
}
