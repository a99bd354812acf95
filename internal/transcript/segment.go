// Package transcript splits an exported chat transcript into raw messages.
package transcript

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// SystemSender is the sender recorded for lines without an explicit sender.
const SystemSender = "System"

const (
	datePart = `(\d{1,2}/\d{1,2}/\d{2,4})`
	timePart = `(\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?)`
)

// grammar is one dated-line form. Groups are date, time, then either
// sender and body or, for sender-less forms, the body alone.
type grammar struct {
	name   string
	re     *regexp.Regexp
	sender bool
}

// grammars are tried in order; every sender form precedes every sender-less
// form.
var grammars = []grammar{
	{"bracketed", regexp.MustCompile(`(?i)^\[` + datePart + `,?\s*` + timePart + `\]\s*([^:]+):\s*(.*)$`), true},
	{"dashed", regexp.MustCompile(`(?i)^` + datePart + `,?\s*` + timePart + `\s*-\s*([^:]+):\s*(.*)$`), true},
	{"bracketed-system", regexp.MustCompile(`(?i)^\[` + datePart + `,?\s*` + timePart + `\]\s*(.+)$`), false},
	{"dashed-system", regexp.MustCompile(`(?i)^` + datePart + `,?\s*` + timePart + `\s*-\s*(.+)$`), false},
}

// Entry is one logical message before timestamp resolution and
// classification.
type Entry struct {
	Date   string
	Time   string
	Sender string
	System bool
	Body   string
	// SourceLine is the entry's first physical line after decoding: BOMs and
	// directional marks are gone and no-break spaces are plain spaces.
	SourceLine string
	LineNo     int
}

// MatchLine tries the dated grammars against a single physical line.
// Sender-less forms are only accepted when the line has no ": " separator, so
// a sender whose name trips the sender forms is never read as a notice.
func MatchLine(line string) (Entry, bool) {
	for _, g := range grammars {
		if !g.sender && strings.Contains(line, ": ") {
			continue
		}
		m := g.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		e := Entry{Date: m[1], Time: m[2], SourceLine: line}
		if g.sender {
			e.Sender = strings.TrimSpace(m[3])
			e.Body = strings.TrimSpace(m[4])
		} else {
			e.Sender = SystemSender
			e.System = true
			e.Body = strings.TrimSpace(m[3])
		}
		return e, true
	}
	return Entry{}, false
}

// Accumulator carries the message in progress through the fold over lines.
// It is a plain value; Step returns the next accumulator instead of mutating.
type Accumulator struct {
	current Entry
	open    bool
	// Dropped counts non-blank lines seen before the first dated line.
	Dropped int
}

// Step feeds one physical line. When the line opens a new message, the
// message that was in progress is returned as finished.
func (a Accumulator) Step(lineNo int, line string) (Accumulator, *Entry) {
	if strings.TrimSpace(line) == "" {
		return a, nil
	}

	if e, ok := MatchLine(line); ok {
		e.LineNo = lineNo
		var finished *Entry
		if a.open {
			prev := a.current
			finished = &prev
		}
		a.current = e
		a.open = true
		return a, finished
	}

	if !a.open {
		a.Dropped++
		return a, nil
	}
	a.current.Body += "\n" + line
	return a, nil
}

// Flush returns the message still in progress, if any.
func (a Accumulator) Flush() (Accumulator, *Entry) {
	if !a.open {
		return a, nil
	}
	e := a.current
	a.current = Entry{}
	a.open = false
	return a, &e
}

// Segment folds lines into entries.
func Segment(lines []string) []Entry {
	var (
		acc Accumulator
		out []Entry
		e   *Entry
	)
	for i, line := range lines {
		if acc, e = acc.Step(i+1, line); e != nil {
			out = append(out, *e)
		}
	}
	if _, e = acc.Flush(); e != nil {
		out = append(out, *e)
	}
	return out
}

// Stats reports what a streaming segmentation saw.
type Stats struct {
	Lines   int
	Entries int
	Dropped int
}

// SegmentReader decodes r and calls emit for each finished entry in
// transcript order. It stops early when ctx is cancelled or emit fails. Lines
// have no length limit.
func SegmentReader(ctx context.Context, r io.Reader, emit func(Entry) error) (Stats, error) {
	var (
		acc   Accumulator
		stats Stats
		e     *Entry
	)

	send := func(e *Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Entries++
		return emit(*e)
	}

	err := readLines(NewDecoder(r), func(line string) error {
		stats.Lines++
		if acc, e = acc.Step(stats.Lines, line); e != nil {
			return send(e)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	if acc, e = acc.Flush(); e != nil {
		if err := send(e); err != nil {
			return stats, err
		}
	}
	stats.Dropped = acc.Dropped
	return stats, nil
}

// readLines calls fn for every line of r, split on "\n" with a trailing "\r"
// dropped. A final empty line after the last "\n" is not reported.
func readLines(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
	}
}
