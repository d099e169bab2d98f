package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Save writes the dataset to path as indented JSON.
func (d *Dataset) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// Load reads a dataset previously written by Save.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &d, nil
}

// ExportCSV writes the entries as a CSV table with a header row, one entry
// per line in dataset order.
func (d *Dataset) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"position", "file_path", "label", "class", "method", "augment_source"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, e := range d.Entries {
		className := ""
		if c, ok := d.ClassByValue(e.Label); ok {
			className = c.Name
		}
		rec := []string{
			strconv.Itoa(i),
			e.FilePath,
			strconv.Itoa(e.Label),
			className,
			e.Method,
			strconv.Itoa(e.AugmentSource),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
