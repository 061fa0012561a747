package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/uqsim/internal/analysis"
)

type BandExport struct {
	Label string    `json:"label"`
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

type ExportData struct {
	RunMetadata
	Lo       float64      `json:"band_lo"`
	Hi       float64      `json:"band_hi"`
	DrawMean []float64    `json:"draw_mean"`
	DrawStd  []float64    `json:"draw_std"`
	Bands    []BandExport `json:"bands"`
}

// ExportJSON writes the run metadata with per-component quantile bands.
func ExportJSON(w io.Writer, meta *RunMetadata, bands []*analysis.Band, drawMean, drawStd []float64) error {
	data := ExportData{
		RunMetadata: *meta,
		DrawMean:    drawMean,
		DrawStd:     drawStd,
		Bands:       make([]BandExport, len(bands)),
	}
	for i, b := range bands {
		label := ""
		if b.Component < len(meta.Labels) {
			label = meta.Labels[b.Component]
		}
		data.Lo, data.Hi = b.Lo, b.Hi
		data.Bands[i] = BandExport{
			Label: label,
			Mean:  b.Mean,
			Std:   b.Std,
			Lower: b.Lower,
			Upper: b.Upper,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
