// Command tilestats summarizes a dataset JSON file written by woodprep:
// entry counts per class and per extraction method, with an optional CSV
// export of the full entry table.
package main

import (
	"flag"
	"fmt"
	"os"

	"wood-tiler/internal/dataset"
)

func main() {
	datasetPath := flag.String("dataset", "", "dataset JSON file to inspect (required)")
	csvPath := flag.String("csv", "", "export the entry table to this CSV file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -dataset <file.json> [-csv <file.csv>]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	ds, err := dataset.Load(*datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d entries, %d classes\n\n", *datasetPath, ds.Count(), len(ds.Classes))

	byLabel := ds.CountByLabel()
	fmt.Printf("By class:\n")
	for _, c := range ds.Classes {
		fmt.Printf("  %-14s (%d)  %d\n", c.Name, c.Value, byLabel[c.Value])
	}

	byMethod := make(map[string]int)
	for _, e := range ds.Entries {
		byMethod[e.Method]++
	}
	fmt.Printf("\nBy method:\n")
	for _, m := range []string{dataset.MethodFrame, dataset.MethodRandom, dataset.MethodCentroid, dataset.MethodAugment} {
		if byMethod[m] > 0 {
			fmt.Printf("  %-10s %d\n", m, byMethod[m])
		}
	}

	if *csvPath != "" {
		if err := ds.ExportCSV(*csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote %s\n", *csvPath)
	}
}
