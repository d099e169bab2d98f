// Package dataset maintains the ordered entry registries the tiling
// pipeline builds: which tile files exist, their ground-truth labels, and
// where each tile came from. Entries are append-only and later phases
// reference them by position, so insertion order is never disturbed.
package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extraction methods recorded in entry provenance.
const (
	MethodFrame    = "frame"    // full source frame added by AddDirectory
	MethodRandom   = "random"   // random tile sampler
	MethodCentroid = "centroid" // blob-centroid tile sampler
	MethodAugment  = "augment"  // augmentation balancer replica
)

// NoAugmentSource marks entries that are not augmentation replicas.
const NoAugmentSource = -1

// Class defines one class of the classifier: its name, the label value its
// pixels carry in the label images, and a representative icon image.
type Class struct {
	Name     string `json:"name" yaml:"name"`
	Value    int    `json:"value" yaml:"value"`
	IconPath string `json:"icon_path,omitempty" yaml:"icon"`
}

// Entry is one dataset record. FilePath points at the stored image,
// Label is the ground-truth class value, and AugmentSource is the position
// of the entry this one was augmented from (NoAugmentSource otherwise).
type Entry struct {
	FilePath      string `json:"file_path"`
	Label         int    `json:"label"`
	Method        string `json:"method"`
	AugmentSource int    `json:"augment_source"`
}

// Dataset is an ordered, append-only sequence of entries plus the class
// table. Positions handed out by Append stay valid for the whole run.
type Dataset struct {
	Classes []Class `json:"classes"`
	Entries []Entry `json:"entries"`
}

// New creates an empty dataset with the given class table.
func New(classes []Class) *Dataset {
	return &Dataset{
		Classes: append([]Class(nil), classes...),
		Entries: make([]Entry, 0),
	}
}

// Count returns the number of entries.
func (d *Dataset) Count() int {
	return len(d.Entries)
}

// Append adds an entry and returns its 0-based position.
func (d *Dataset) Append(e Entry) int {
	d.Entries = append(d.Entries, e)
	return len(d.Entries) - 1
}

// ClassByValue returns the class with the given label value.
func (d *Dataset) ClassByValue(value int) (Class, bool) {
	for _, c := range d.Classes {
		if c.Value == value {
			return c, true
		}
	}
	return Class{}, false
}

// AddDirectory appends one entry per image file with the given extension
// found directly in dir, in sorted filename order. Entries record the bare
// filename, carry label 0 (no defect until a sampling pass says otherwise)
// and frame provenance. Returns the number of entries added.
func (d *Dataset) AddDirectory(dir, ext string) (int, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read image directory: %w", err)
	}

	var names []string
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(item.Name()), ext) {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		d.Append(Entry{
			FilePath:      name,
			Label:         0,
			Method:        MethodFrame,
			AugmentSource: NoAugmentSource,
		})
	}
	return len(names), nil
}

// Split partitions the entries into two new datasets, with trainPercent
// percent of them (rounded) going to the first. Membership is decided by a
// shuffle seeded with seed, so the same seed and entry order always produce
// the same partition. Both partitions keep the class table and preserve the
// relative entry order of the source.
func (d *Dataset) Split(trainPercent float64, seed int64) (train, dev *Dataset) {
	n := len(d.Entries)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	trainCount := int(float64(n)*trainPercent/100.0 + 0.5)
	if trainCount > n {
		trainCount = n
	}

	inTrain := make([]bool, n)
	for _, idx := range indices[:trainCount] {
		inTrain[idx] = true
	}

	train = New(d.Classes)
	dev = New(d.Classes)
	for i, e := range d.Entries {
		if inTrain[i] {
			train.Append(e)
		} else {
			dev.Append(e)
		}
	}
	return train, dev
}

// CountByLabel returns entry counts keyed by label value.
func (d *Dataset) CountByLabel() map[int]int {
	counts := make(map[int]int)
	for _, e := range d.Entries {
		counts[e.Label]++
	}
	return counts
}
