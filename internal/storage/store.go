package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

const (
	metadataFile = "metadata.json"
	ensembleFile = "ensemble.csv"
	paramsFile   = "params.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how an ensemble was produced.
type RunInfo struct {
	Model      string
	Integrator string
	Workers    int
	Tolerant   bool
	Labels     []string
	Marginals  []montecarlo.Gaussian
}

type FailureRecord struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type RunMetadata struct {
	ID         string                `json:"id"`
	Model      string                `json:"model"`
	Integrator string                `json:"integrator"`
	Timestamp  time.Time             `json:"timestamp"`
	Seed       uint64                `json:"seed"`
	Samples    int                   `json:"samples"`
	Succeeded  int                   `json:"succeeded"`
	Workers    int                   `json:"workers"`
	Tolerant   bool                  `json:"tolerant"`
	Labels     []string              `json:"labels"`
	Marginals  []montecarlo.Gaussian `json:"marginals"`
	Times      []float64             `json:"times"`
	Failures   []FailureRecord       `json:"failures,omitempty"`
}

// Save writes a run directory and returns its id.
func (s *Store) Save(info RunInfo, ens *montecarlo.Ensemble) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	runID, err := s.mkRunDir(fmt.Sprintf("%s_%d", info.Model, now.Unix()))
	if err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, runID)

	meta := RunMetadata{
		ID:         runID,
		Model:      info.Model,
		Integrator: info.Integrator,
		Timestamp:  now,
		Seed:       ens.Seed,
		Samples:    ens.Len(),
		Succeeded:  ens.Succeeded(),
		Workers:    info.Workers,
		Tolerant:   info.Tolerant,
		Labels:     info.Labels,
		Marginals:  info.Marginals,
		Times:      ens.Times,
	}
	for _, f := range ens.Failures() {
		meta.Failures = append(meta.Failures, FailureRecord{Index: f.Index, Error: f.Err.Error()})
	}

	if err := writeRun(runDir, meta, ens, info); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

// writeRun writes metadata.json last; List only sees complete runs.
func writeRun(runDir string, meta RunMetadata, ens *montecarlo.Ensemble, info RunInfo) error {
	if err := writeEnsemble(filepath.Join(runDir, ensembleFile), ens, info.Labels); err != nil {
		return err
	}
	if err := writeParams(filepath.Join(runDir, paramsFile), ens, len(info.Marginals)); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, metadataFile), meta)
}

// mkRunDir creates base, or base_2, base_3, ... when runs share a second.
func (s *Store) mkRunDir(base string) (string, error) {
	id := base
	for n := 2; ; n++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0755)
		if err == nil {
			return id, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// writeEnsemble stores one row per (successful sample, grid time).
func writeEnsemble(path string, ens *montecarlo.Ensemble, labels []string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{"sample", "time", "err_est"}
		header = append(header, labels...)
		if err := w.Write(header); err != nil {
			return err
		}

		for _, smp := range ens.Samples {
			if !smp.OK() {
				continue
			}
			tr := smp.Trajectory
			if len(tr.Times) != len(tr.States) || len(tr.ErrEst) != len(tr.States) {
				return fmt.Errorf("%w: sample %d has %d times, %d states, %d error estimates",
					dynamo.ErrShape, smp.Index, len(tr.Times), len(tr.States), len(tr.ErrEst))
			}
			for i, st := range tr.States {
				if len(st) != len(labels) {
					return fmt.Errorf("%w: sample %d state %d has %d components, expected %d",
						dynamo.ErrShape, smp.Index, i, len(st), len(labels))
				}
				row := []string{strconv.Itoa(smp.Index), formatFloat(tr.Times[i]), formatFloat(tr.ErrEst[i])}
				for _, v := range st {
					row = append(row, formatFloat(v))
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeParams stores the draw and transformed parameters of every sample.
// Samples whose draw failed leave those columns empty.
func writeParams(path string, ens *montecarlo.Ensemble, dim int) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{"sample", "ok"}
		for i := 0; i < dim; i++ {
			header = append(header, fmt.Sprintf("xi%d", i))
		}
		for i := 0; i < dim; i++ {
			header = append(header, fmt.Sprintf("k%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for _, smp := range ens.Samples {
			row := []string{strconv.Itoa(smp.Index), strconv.FormatBool(smp.OK())}
			row = appendVector(row, smp.Xi, dim)
			row = appendVector(row, smp.K, dim)
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendVector(row []string, v dynamo.Params, dim int) []string {
	for i := 0; i < dim; i++ {
		if i < len(v) {
			row = append(row, formatFloat(v[i]))
		} else {
			row = append(row, "")
		}
	}
	return row
}

// List returns the metadata of every readable run, ordered by id.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadEnsemble rebuilds a stored ensemble. Failed samples get their recorded
// error message back as Err.
func (s *Store) LoadEnsemble(runID string) (*RunMetadata, *montecarlo.Ensemble, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	ens := &montecarlo.Ensemble{
		Times:   meta.Times,
		Seed:    meta.Seed,
		Samples: make([]montecarlo.Sample, meta.Samples),
	}
	for i := range ens.Samples {
		ens.Samples[i].Index = i
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := readParams(filepath.Join(runDir, paramsFile), ens, len(meta.Marginals)); err != nil {
		return nil, nil, err
	}
	if err := readEnsemble(filepath.Join(runDir, ensembleFile), ens); err != nil {
		return nil, nil, err
	}
	for _, f := range meta.Failures {
		if f.Index < 0 || f.Index >= len(ens.Samples) {
			return nil, nil, fmt.Errorf("%s: failure index %d out of range", runID, f.Index)
		}
		ens.Samples[f.Index].Err = errors.New(f.Error)
	}

	return meta, ens, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}

func parseFloats(fields []string) ([]float64, error) {
	if len(fields) == 0 || fields[0] == "" {
		return nil, nil
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func sampleIndex(field string, n int) (int, error) {
	idx, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("sample %d out of range [0,%d)", idx, n)
	}
	return idx, nil
}

func readParams(path string, ens *montecarlo.Ensemble, dim int) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for line, rec := range records {
		if len(rec) != 2+2*dim {
			return fmt.Errorf("%s line %d: expected %d fields, got %d", paramsFile, line+2, 2+2*dim, len(rec))
		}
		idx, err := sampleIndex(rec[0], ens.Len())
		if err != nil {
			return fmt.Errorf("%s line %d: %w", paramsFile, line+2, err)
		}
		xi, err := parseFloats(rec[2 : 2+dim])
		if err != nil {
			return fmt.Errorf("%s line %d: %w", paramsFile, line+2, err)
		}
		k, err := parseFloats(rec[2+dim:])
		if err != nil {
			return fmt.Errorf("%s line %d: %w", paramsFile, line+2, err)
		}
		ens.Samples[idx].Xi = xi
		ens.Samples[idx].K = k
	}
	return nil
}

func readEnsemble(path string, ens *montecarlo.Ensemble) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for line, rec := range records {
		if len(rec) < 4 {
			return fmt.Errorf("%s line %d: too few fields", ensembleFile, line+2)
		}
		idx, err := sampleIndex(rec[0], ens.Len())
		if err != nil {
			return fmt.Errorf("%s line %d: %w", ensembleFile, line+2, err)
		}
		vals, err := parseFloats(rec[1:])
		if err != nil {
			return fmt.Errorf("%s line %d: %w", ensembleFile, line+2, err)
		}

		smp := &ens.Samples[idx]
		if smp.Trajectory == nil {
			smp.Trajectory = &dynamo.Trajectory{}
		}
		tr := smp.Trajectory
		tr.Times = append(tr.Times, vals[0])
		tr.ErrEst = append(tr.ErrEst, vals[1])
		tr.States = append(tr.States, dynamo.State(vals[2:]))
	}
	return nil
}
