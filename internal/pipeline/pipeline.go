// Package pipeline runs archive extraction and transcript parsing and joins
// them into a conversation.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/chatarchive/internal/archive"
	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/classify"
	"github.com/MikeSquared-Agency/chatarchive/internal/media"
	"github.com/MikeSquared-Agency/chatarchive/internal/timestamp"
	"github.com/MikeSquared-Agency/chatarchive/internal/transcript"
)

// Options tune a single run.
type Options struct {
	// PrimaryUser, when set, overrides the most-messages heuristic.
	PrimaryUser string
	// Progress receives every progress value. It is called from one
	// goroutine at a time and must not block for long.
	Progress func(Progress)
}

// Pipeline turns archive bytes into a conversation.
type Pipeline struct {
	extractor *archive.Extractor
	logger    *slog.Logger
}

// New creates a pipeline that extracts media with up to workers goroutines.
func New(workers int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: archive.NewExtractor(workers, logger),
		logger:    logger,
	}
}

// pending is a segmented message whose media has not been linked yet.
type pending struct {
	msg       chat.Message
	mediaName string
}

// Run parses data. On success the returned conversation owns a frozen media
// library that the caller must Release. On failure nothing is returned, any
// media read so far is released, and the progress stream ends with a single
// error value.
func (p *Pipeline) Run(ctx context.Context, data []byte, opts Options) (*chat.Conversation, error) {
	rep := newReporter(opts.Progress)
	started := time.Now()

	conv, err := p.run(ctx, data, opts, rep)
	if err != nil {
		p.logger.Error("archive parse failed", "error", err, "bytes", len(data))
		rep.fail(err)
		return nil, err
	}

	p.logger.Info("archive parsed",
		"title", conv.Title,
		"messages", conv.MessageCount,
		"participants", len(conv.Participants),
		"media", conv.Media.Len(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	rep.complete(fmt.Sprintf("Parsed %d messages", conv.MessageCount))
	return conv, nil
}

func (p *Pipeline) run(ctx context.Context, data []byte, opts Options, rep *reporter) (*chat.Conversation, error) {
	rep.report(StageExtracting, 0, "Loading archive...")
	r, err := archive.Open(data)
	if err != nil {
		return nil, err
	}

	rep.report(StageExtracting, 10, "Found chat file "+r.TranscriptName())
	rep.report(StageExtracting, 20, "Extracting chat content...")
	text, err := r.ReadTranscript()
	if err != nil {
		return nil, err
	}

	total := len(r.Media())
	rep.report(StageExtracting, 30, fmt.Sprintf("Extracting media... (0/%d)", total))

	lib := media.NewLibrary()
	var entries []pending

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := p.extractor.Extract(gctx, r, lib, func(done, total int) {
			rep.report(StageExtracting, 30+done*50/total, fmt.Sprintf("Extracting media... (%d/%d)", done, total))
		})
		if err != nil {
			return err
		}
		if len(res.Skipped) > 0 {
			p.logger.Warn("media entries skipped", "skipped", len(res.Skipped), "total", res.Total)
		}
		return nil
	})
	g.Go(func() error {
		stats, err := transcript.SegmentReader(gctx, bytes.NewReader(text), func(e transcript.Entry) error {
			entries = append(entries, p.classify(e))
			return nil
		})
		if err != nil {
			return fmt.Errorf("parse transcript: %w", err)
		}
		if stats.Dropped > 0 {
			p.logger.Warn("dropped undated leading lines", "lines", stats.Dropped)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		lib.Release()
		return nil, err
	}
	lib.Freeze()

	rep.report(StageParsing, 85, fmt.Sprintf("Parsing chat... (%d messages)", len(entries)))

	names := lib.Names()
	msgs := make([]chat.Message, 0, len(entries))
	for _, pe := range entries {
		if err := ctx.Err(); err != nil {
			lib.Release()
			return nil, fmt.Errorf("link media: %w", err)
		}
		m := pe.msg
		if m.Kind.IsMedia() {
			if name, ok := classify.Link(pe.mediaName, names); ok {
				m.MediaRef = name
			}
		}
		msgs = append(msgs, m)
	}

	return chat.Assemble(msgs, lib, opts.PrimaryUser), nil
}

// classify resolves and classifies one segmented entry.
func (p *Pipeline) classify(e transcript.Entry) pending {
	ts, err := timestamp.Resolve(e.Date, e.Time)
	if err != nil {
		p.logger.Debug("unresolvable timestamp", "line", e.LineNo, "error", err)
	}

	m := chat.Message{
		ID:         chat.NextID(),
		Timestamp:  ts,
		Sender:     e.Sender,
		Text:       e.Body,
		SourceLine: e.SourceLine,
	}

	if e.System {
		m.Kind = chat.KindSystem
		m.Sender = chat.SystemSender
		return pending{msg: m}
	}

	res := classify.Classify(e.Body)
	m.Kind = res.Kind
	if res.Kind == chat.KindSystem {
		m.Sender = chat.SystemSender
	}
	return pending{msg: m, mediaName: res.MediaName}
}
