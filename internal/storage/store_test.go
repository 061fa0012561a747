package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/uqsim/internal/analysis"
	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

func decayEnsemble(t *testing.T) *montecarlo.Ensemble {
	t.Helper()
	times := []float64{0, 0.5, 1}
	ens := &montecarlo.Ensemble{Times: times, Seed: 7, Samples: make([]montecarlo.Sample, 3)}
	for i, k := range []float64{0.9, 1.1} {
		tr := &dynamo.Trajectory{Times: times}
		for _, tm := range times {
			tr.States = append(tr.States, dynamo.State{math.Exp(-k * tm), 1 / 3.0})
			tr.ErrEst = append(tr.ErrEst, 1e-9*tm)
		}
		ens.Samples[i] = montecarlo.Sample{Index: i, Xi: dynamo.Params{k}, K: dynamo.Params{k}, Trajectory: tr}
	}
	ens.Samples[2] = montecarlo.Sample{
		Index: 2,
		Xi:    dynamo.Params{-3},
		K:     dynamo.Params{-3},
		Err:   &dynamo.SampleError{Index: 2, Seed: 7, Wrapped: dynamo.ErrNonFinite},
	}
	return ens
}

var testInfo = RunInfo{
	Model:      "decay",
	Integrator: "rkf45",
	Workers:    2,
	Tolerant:   true,
	Labels:     []string{"x", "c"},
	Marginals:  []montecarlo.Gaussian{{Loc: 1, Scale: 0.1}},
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))
	ens := decayEnsemble(t)

	runID, err := st.Save(testInfo, ens)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	for _, name := range []string{metadataFile, ensembleFile, paramsFile} {
		_, err := os.Stat(filepath.Join(st.baseDir, runID, name))
		assert.NoError(t, err, name)
	}

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "decay", meta.Model)
	assert.Equal(t, uint64(7), meta.Seed)
	assert.Equal(t, 3, meta.Samples)
	assert.Equal(t, 2, meta.Succeeded)
	require.Len(t, meta.Failures, 1)
	assert.Equal(t, 2, meta.Failures[0].Index)
	assert.Contains(t, meta.Failures[0].Error, "sample 2")

	_, loaded, err := st.LoadEnsemble(runID)
	require.NoError(t, err)
	require.Equal(t, ens.Len(), loaded.Len())
	assert.Equal(t, ens.Times, loaded.Times)

	for i := 0; i < 2; i++ {
		want, got := ens.Samples[i], loaded.Samples[i]
		require.True(t, got.OK(), "sample %d", i)
		assert.Equal(t, want.Xi, got.Xi)
		assert.Equal(t, want.K, got.K)
		assert.Equal(t, want.Trajectory.Times, got.Trajectory.Times)
		assert.Equal(t, want.Trajectory.ErrEst, got.Trajectory.ErrEst)
		assert.Equal(t, want.Trajectory.States, got.Trajectory.States)
	}

	failed := loaded.Samples[2]
	assert.False(t, failed.OK())
	assert.Equal(t, dynamo.Params{-3}, failed.Xi)
	assert.EqualError(t, failed.Err, ens.Samples[2].Err.Error())
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	id1, err := st.Save(testInfo, decayEnsemble(t))
	require.NoError(t, err)
	id2, err := st.Save(testInfo, decayEnsemble(t))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	require.NoError(t, os.WriteFile(filepath.Join(st.baseDir, "stray.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(st.baseDir, "empty"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, _, err = st.LoadEnsemble("nope")
	assert.Error(t, err)
}

func TestLoadEnsembleRejectsCorruptCSV(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testInfo, decayEnsemble(t))
	require.NoError(t, err)

	path := filepath.Join(st.baseDir, runID, ensembleFile)
	require.NoError(t, os.WriteFile(path, []byte("sample,time,err_est,x,c\n9,0,0,1,1\n"), 0644))

	_, _, err = st.LoadEnsemble(runID)
	assert.ErrorContains(t, err, "out of range")
}

func TestExportJSON(t *testing.T) {
	ens := decayEnsemble(t)
	bands, err := analysis.Summarize(ens, 0.05, 0.95)
	require.NoError(t, err)
	mean, std, err := analysis.DrawMoments(ens)
	require.NoError(t, err)

	meta := &RunMetadata{ID: "decay_1", Model: "decay", Labels: testInfo.Labels, Times: ens.Times}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, bands, mean, std))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "decay_1", got.ID)
	require.Len(t, got.Bands, 2)
	assert.Equal(t, "x", got.Bands[0].Label)
	assert.Equal(t, "c", got.Bands[1].Label)
	assert.InDelta(t, 1.0, got.Bands[0].Mean[0], 1e-12)
	assert.Equal(t, 0.95, got.Hi)
	assert.Len(t, got.DrawMean, 1)
}

func TestStoreSave_FailedWriteLeavesNoRun(t *testing.T) {
	st := New(t.TempDir())

	info := testInfo
	info.Labels = []string{"x"}
	_, err := st.Save(info, decayEnsemble(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrShape))

	entries, err := os.ReadDir(st.baseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
