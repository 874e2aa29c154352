package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/cnmarch/internal/fvm"
)

type ExportData struct {
	*RunMetadata
	X []float64   `json:"x"`
	U [][]float64 `json:"u"`
}

// ExportJSON writes the metadata together with the full snapshot matrix.
func ExportJSON(w io.Writer, meta *RunMetadata, hist *fvm.History) error {
	data := ExportData{
		RunMetadata: meta,
		X:           hist.X,
		U:           hist.Snapshots(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
