package submission

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tilevec/tilevec/pkg/perfstats"
)

type taskResult struct {
	rows    []Row
	elapsed time.Duration
	err     error
}

// BuildSubmission runs polygon extraction for ids across the worker pool and
// writes the output table. The header row is written first; each image's
// class rows are written contiguously, in the order tasks complete. The file
// is written to a temporary name and renamed into place on success, so an
// aborted batch never leaves a partial submission behind.
func (c *Config) BuildSubmission(ids []string, header []string, outPath string) error {
	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	tmpPath := outPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("Failed to create '%v': %w", tmpPath, err)
	}
	defer os.Remove(tmpPath)
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	jobs := make(chan string)
	results := make(chan taskResult)
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				start := time.Now()
				rows, err := c.PolyRows(id)
				results <- taskResult{rows: rows, elapsed: time.Since(start), err: err}
			}
		}()
	}
	go func() {
		for _, id := range ids {
			jobs <- id
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	// A failed task aborts the batch. We keep draining so the workers can
	// exit, but stop writing.
	var firstErr error
	perf := perfstats.TimeAccumulator{}
	for res := range results {
		if firstErr != nil {
			continue
		}
		if res.err != nil {
			firstErr = res.err
			continue
		}
		perf.AddSample(res.elapsed)
		for _, row := range res.rows {
			if err := w.Write([]string{row.ImageID, strconv.Itoa(row.PolyType), row.Geometry}); err != nil {
				firstErr = err
				break
			}
		}
	}
	if firstErr != nil {
		f.Close()
		return firstErr
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return err
	}
	c.Log.Infof("Wrote %v images to %v (average %.0f ms per image)", perf.Samples, outPath, perf.Average().Seconds()*1000)
	return nil
}
