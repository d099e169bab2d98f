package augment

import (
	"fmt"
	"path/filepath"
	"strings"

	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
)

// Progress is called after each source entry is processed.
type Progress func(done, total int)

// Balance appends augmented replicas to ds. replicas[c] is the number of
// replicas generated from every existing entry of class c; rare classes get
// large counts and the background usually gets one. Only the entries
// present when Balance starts are sources, so the replicas themselves are
// never re-augmented. Replica entries carry the position of their source.
// Returns the number of entries appended.
func Balance(ds *dataset.Dataset, baseDir string, replicas []int, aug *Augmenter, progress Progress) (int, error) {
	total := ds.Count()
	added := 0

	for pos := 0; pos < total; pos++ {
		e := ds.Entries[pos]
		if e.Label < 0 || e.Label >= len(replicas) {
			return added, fmt.Errorf("entry %d: label %d has no replica count", pos, e.Label)
		}

		count := replicas[e.Label]
		if count > 0 {
			src, err := raster.Load(filepath.Join(baseDir, e.FilePath))
			if err != nil {
				return added, fmt.Errorf("augment source %d: %w", pos, err)
			}

			for r := 0; r < count; r++ {
				replica := aug.Apply(src)
				name := replicaName(e.FilePath, r)
				if err := raster.Save(replica, filepath.Join(baseDir, name)); err != nil {
					return added, fmt.Errorf("augment entry %d replica %d: %w", pos, r, err)
				}

				ds.Append(dataset.Entry{
					FilePath:      name,
					Label:         e.Label,
					Method:        dataset.MethodAugment,
					AugmentSource: pos,
				})
				added++
			}
		}

		if progress != nil {
			progress(pos+1, total)
		}
	}
	return added, nil
}

// replicaName inserts an _Aug_N suffix before the extension.
func replicaName(path string, replica int) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + fmt.Sprintf("_Aug_%d", replica) + ext
}
