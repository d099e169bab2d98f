// Command woodprep builds the training and validation tile sets for the
// wood-defect classifier from a directory of annotated frames.
//
// Each frame in the image directory must have a label map of the same name
// in the label directory, with pixel values encoding class indices. The
// frames are split into train and dev partitions, tiled by the random and
// blob-centroid samplers, rebalanced by augmentation (train only), center
// cropped to the network input size, and registered in one dataset JSON
// file per partition.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"wood-tiler/internal/augment"
	"wood-tiler/internal/blob"
	"wood-tiler/internal/config"
	"wood-tiler/internal/dataset"
	"wood-tiler/internal/raster"
	"wood-tiler/internal/tile"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (defaults apply if empty)")
	imageDir := flag.String("images", "", "override: directory of sensor frames")
	labelDir := flag.String("labels", "", "override: directory of label maps")
	trainDir := flag.String("train", "", "override: output directory for training tiles")
	devDir := flag.String("dev", "", "override: output directory for validation tiles")
	detector := flag.String("detector", "", "override: blob detector (builtin or opencv)")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this file and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Builds train and dev tile datasets from annotated wood frames.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *imageDir != "" {
		cfg.Paths.ImageDir = *imageDir
	}
	if *labelDir != "" {
		cfg.Paths.LabelDir = *labelDir
	}
	if *trainDir != "" {
		cfg.Paths.TrainDir = *trainDir
	}
	if *devDir != "" {
		cfg.Paths.DevDir = *devDir
	}
	if *detector != "" {
		cfg.Tiling.BlobDetector = *detector
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote configuration to %s\n", *writeConfig)
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	fmt.Printf("Preparing output directories...\n")
	for _, dir := range []string{cfg.Paths.TrainDir, cfg.Paths.DevDir} {
		if err := prepareOutputDir(dir, cfg.Classes); err != nil {
			return err
		}
	}

	frames := dataset.New(cfg.Classes)
	count, err := frames.AddDirectory(cfg.Paths.ImageDir, cfg.Paths.ImageExt)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no %s frames found in %s", cfg.Paths.ImageExt, cfg.Paths.ImageDir)
	}
	fmt.Printf("Found %d frames in %s\n", count, cfg.Paths.ImageDir)

	if err := frames.SaveMontage(filepath.Join(cfg.Paths.TrainDir, "classes.png")); err != nil {
		return err
	}

	trainFrames, devFrames := frames.Split(cfg.Split.TrainPercent, cfg.Split.Seed)
	fmt.Printf("Split: %d train frames, %d dev frames\n", trainFrames.Count(), devFrames.Count())

	var det blob.Detector = blob.FloodFillDetector{}
	if cfg.Tiling.BlobDetector == config.DetectorOpenCV {
		det = blob.OpenCVDetector{}
	}

	random := tile.NewRandomSampler(tile.RandomParams{
		TilesPerImage: cfg.Tiling.TilesPerImage,
		TileWidth:     cfg.Tiling.TileSize,
		TileHeight:    cfg.Tiling.TileSize,
		RetinaSize:    cfg.Tiling.RetinaSize,
	}, cfg.Tiling.SamplingSeed)
	centroid := tile.NewCentroidSampler(tile.CentroidParams{
		ClassCount:     len(cfg.Classes),
		TileWidth:      cfg.Tiling.TileSize,
		TileHeight:     cfg.Tiling.TileSize,
		FinalTileSize:  cfg.Tiling.FinalTileSize,
		RetinaFraction: tile.DefaultRetinaFraction,
	}, det)

	trainTiles, err := extractTiles("train", cfg, trainFrames, cfg.Paths.TrainDir, random, centroid)
	if err != nil {
		return err
	}
	devTiles, err := extractTiles("dev", cfg, devFrames, cfg.Paths.DevDir, random, centroid)
	if err != nil {
		return err
	}

	fmt.Printf("Balancing training set by augmentation...\n")
	bar := progressbar.Default(int64(trainTiles.Count()), "augment")
	aug := augment.New(augment.DefaultPolicy(), cfg.Augment.Seed)
	added, err := augment.Balance(trainTiles, cfg.Paths.TrainDir, cfg.Augment.Replicas, aug,
		func(done, total int) { bar.Set(done) })
	if err != nil {
		return err
	}
	fmt.Printf("Appended %d augmented tiles\n", added)

	for _, part := range []struct {
		name string
		ds   *dataset.Dataset
		dir  string
	}{
		{"train", trainTiles, cfg.Paths.TrainDir},
		{"dev", devTiles, cfg.Paths.DevDir},
	} {
		fmt.Printf("Cropping %s tiles to %dx%d...\n", part.name, cfg.Tiling.FinalTileSize, cfg.Tiling.FinalTileSize)
		bar := progressbar.Default(int64(part.ds.Count()), "crop "+part.name)
		err := tile.CropDataset(part.ds, part.dir, cfg.Tiling.FinalTileSize,
			func(done, total int) { bar.Set(done) })
		if err != nil {
			return err
		}
	}

	if err := trainTiles.Save(filepath.Join(cfg.Paths.TrainDir, "TrainDataset.json")); err != nil {
		return err
	}
	if err := devTiles.Save(filepath.Join(cfg.Paths.DevDir, "DevDataset.json")); err != nil {
		return err
	}

	report("train", trainTiles)
	report("dev", devTiles)
	return nil
}

// prepareOutputDir creates one subdirectory per class and removes tile
// files left over from a previous run, so stale tiles never leak into a
// new dataset.
func prepareOutputDir(dir string, classes []dataset.Class) error {
	for _, c := range classes {
		classDir := filepath.Join(dir, c.Name)
		if err := os.MkdirAll(classDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", classDir, err)
		}

		items, err := os.ReadDir(classDir)
		if err != nil {
			return fmt.Errorf("read %s: %w", classDir, err)
		}
		for _, item := range items {
			if item.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(classDir, item.Name())); err != nil {
				return fmt.Errorf("clean %s: %w", classDir, err)
			}
		}
	}
	return nil
}

// extractTiles runs both samplers over every frame of a partition and
// returns the resulting tile dataset.
func extractTiles(name string, cfg *config.Config, frames *dataset.Dataset, outDir string,
	random *tile.RandomSampler, centroid *tile.CentroidSampler) (*dataset.Dataset, error) {

	tiles := dataset.New(cfg.Classes)
	bar := progressbar.Default(int64(frames.Count()), "tile "+name)

	randomCount, centroidCount, droppedCount := 0, 0, 0
	for _, e := range frames.Entries {
		frame, err := raster.Load(filepath.Join(cfg.Paths.ImageDir, e.FilePath))
		if err != nil {
			return nil, err
		}
		label, err := raster.LoadLabel(filepath.Join(cfg.Paths.LabelDir, e.FilePath))
		if err != nil {
			return nil, err
		}

		n, err := random.SampleFrame(frame, label, e.FilePath, outDir, tiles)
		if err != nil {
			return nil, err
		}
		randomCount += n

		written, dropped, err := centroid.SampleFrame(frame, label, e.FilePath, outDir, tiles)
		if err != nil {
			return nil, err
		}
		centroidCount += written
		droppedCount += dropped

		bar.Add(1)
	}

	fmt.Printf("%s: %d random tiles, %d centroid tiles (%d dropped by acceptance retina)\n",
		name, randomCount, centroidCount, droppedCount)
	return tiles, nil
}

// report prints the per-class entry counts of a finished partition.
func report(name string, ds *dataset.Dataset) {
	counts := ds.CountByLabel()
	fmt.Printf("%s dataset: %d entries\n", name, ds.Count())
	for _, c := range ds.Classes {
		fmt.Printf("  %-12s %d\n", c.Name, counts[c.Value])
	}
}
