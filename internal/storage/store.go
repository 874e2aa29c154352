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

	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/report"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
)

// ErrMalformed indicates a run directory whose files cannot be parsed.
var ErrMalformed = errors.New("storage: malformed run data")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunDir is the directory holding the files of runID.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Timestamp   time.Time           `json:"timestamp"`
	Config      *config.Config      `json:"config"`
	Solver      string              `json:"solver"`
	Snapshots   int                 `json:"snapshots"`
	ElapsedMs   float64             `json:"elapsed_ms"`
	Metrics     map[string]float64  `json:"metrics"`
	Comparisons []report.Comparison `json:"comparisons,omitempty"`
}

// Save writes meta and hist under a fresh run directory and returns its ID.
// ID and Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, hist *fvm.History) (string, error) {
	if hist == nil || hist.Len() == 0 {
		return "", fmt.Errorf("%w: empty history", fvm.ErrDimension)
	}
	if meta.Name == "" {
		meta.Name = "run"
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	}
	meta.Snapshots = hist.Len()

	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, historyFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteHistoryCSV(csvFile, hist); err != nil {
		return "", err
	}
	return meta.ID, csvFile.Close()
}

// WriteHistoryCSV writes one row per snapshot: x followed by every cell.
// Values keep full float64 precision.
func WriteHistoryCSV(out io.Writer, hist *fvm.History) error {
	w := csv.NewWriter(out)

	cells := 0
	if hist.Len() > 0 {
		cells = len(hist.U[0])
	}
	header := make([]string, 0, cells+1)
	header = append(header, "x")
	for i := 0; i < cells; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, cells+1)
	for n, x := range hist.X {
		row[0] = strconv.FormatFloat(x, 'g', -1, 64)
		for i, val := range hist.U[n] {
			row[i+1] = strconv.FormatFloat(val, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadHistory(runID string) (*fvm.History, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadHistoryCSV(file)
}

// ReadHistoryCSV parses the format written by WriteHistoryCSV.
func ReadHistoryCSV(in io.Reader) (*fvm.History, error) {
	r := csv.NewReader(in)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}

	hist := &fvm.History{
		X:       make([]float64, 0, len(records)-1),
		U:       make([]fvm.Field, 0, len(records)-1),
		Metrics: make(map[string]float64),
	}

	for i := 1; i < len(records); i++ {
		record := records[i]

		x, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, i, err)
		}

		u := make(fvm.Field, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformed, i, j, err)
			}
			u[j-1] = val
		}

		hist.X = append(hist.X, x)
		hist.U = append(hist.U, u)
	}

	return hist, nil
}
