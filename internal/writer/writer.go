package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/types"
)

const telephoneColumn = "telephone"

var ErrMissingColumn = errors.New("missing telephone column")

// Telephones receives previously stored telephone numbers
type Telephones interface {
	Add(telephone string)
}

// CSVWriter appends provider records to a CSV file
type CSVWriter struct {
	path   string
	logger *log.Logger
}

// New creates a CSVWriter for path. Nothing is touched on disk until the first write.
func New(path string, logger *log.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

// Path returns the output file path
func (w *CSVWriter) Path() string {
	return w.path
}

// WriteRecords appends records. The header is written only when the file
// does not exist yet. An empty batch is a no-op.
func (w *CSVWriter) WriteRecords(records []types.ProviderRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, err := os.Stat(w.path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if !exists {
		if err := cw.Write(types.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	w.logger.Info("Saved records", "count", len(records), "file", w.path)
	return nil
}

// ReadTelephones returns the non-empty telephone values of the existing
// file. A missing file yields no values and no error.
func (w *CSVWriter) ReadTelephones() ([]string, error) {
	file, err := os.Open(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if name == telephoneColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingColumn
	}

	var phones []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if row[col] != "" {
			phones = append(phones, row[col])
		}
	}
	return phones, nil
}

// Seed loads stored telephones into set. A file that cannot be read is
// logged and treated as empty.
func (w *CSVWriter) Seed(set Telephones) int {
	phones, err := w.ReadTelephones()
	if err != nil {
		w.logger.Warn("Could not load existing records", "file", w.path, "err", err)
		return 0
	}
	for _, p := range phones {
		set.Add(p)
	}
	if len(phones) > 0 {
		w.logger.Info("Loaded existing telephones", "count", len(phones), "file", w.path)
	}
	return len(phones)
}
