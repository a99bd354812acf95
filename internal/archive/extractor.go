package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

const defaultWorkers = 4

// MediaEntryError describes a media entry that was skipped.
type MediaEntryError struct {
	Entry string
	Err   error
}

func (e *MediaEntryError) Error() string {
	return fmt.Sprintf("media entry %s unreadable: %v", e.Entry, e.Err)
}

func (e *MediaEntryError) Unwrap() error { return e.Err }

// ExtractResult summarises a media extraction run.
type ExtractResult struct {
	Total   int
	Added   int
	Skipped []*MediaEntryError
}

// Extractor reads media entries into a Library with a bounded worker pool.
type Extractor struct {
	workers int
	logger  *slog.Logger
}

// NewExtractor creates an extractor. workers <= 0 selects the default.
func NewExtractor(workers int, logger *slog.Logger) *Extractor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Extractor{workers: workers, logger: logger}
}

// Extract reads every media entry of r into lib. A failing entry is logged
// and skipped. onProgress, when non-nil, is called once per finished entry
// with a strictly increasing done count; calls are serialised.
//
// Extract returns only context errors. An entry whose read finishes after
// cancellation is not inserted.
func (e *Extractor) Extract(ctx context.Context, r *Reader, lib *media.Library, onProgress func(done, total int)) (*ExtractResult, error) {
	entries := r.Media()
	res := &ExtractResult{Total: len(entries)}
	if len(entries) == 0 {
		return res, nil
	}

	workers := e.workers
	if workers > len(entries) {
		workers = len(entries)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(added bool, skipped *MediaEntryError) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if added {
			res.Added++
		}
		if skipped != nil {
			res.Skipped = append(res.Skipped, skipped)
		}
		if onProgress != nil {
			onProgress(done, len(entries))
		}
	}

	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := readFile(entry.file)
			if err != nil {
				skipped := &MediaEntryError{Entry: entry.Name, Err: err}
				e.logger.Warn("skipping unreadable media entry", "entry", entry.Name, "error", err)
				finish(false, skipped)
				return nil
			}

			if err := gctx.Err(); err != nil {
				return err
			}
			_, added := lib.Add(entry.Index, media.NewRecord(entry.Name, data))
			finish(added, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("extract media: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("extract media: %w", err)
	}
	return res, nil
}
