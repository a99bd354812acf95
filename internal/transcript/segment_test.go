package transcript

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMatchLine_Grammars(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		date   string
		time   string
		sender string
		body   string
		system bool
	}{
		{"bracketed with seconds", "[01/02/2023, 10:15:00] Alice: Hello", "01/02/2023", "10:15:00", "Alice", "Hello", false},
		{"bracketed 12h", "[5/13/24, 4:20:01 PM] Bob Smith: see you", "5/13/24", "4:20:01 PM", "Bob Smith", "see you", false},
		{"dashed", "13/05/2024, 21:07 - Carol: ok", "13/05/2024", "21:07", "Carol", "ok", false},
		{"dashed no comma", "13/05/2024 9:07 am - Carol: ok", "13/05/2024", "9:07 am", "Carol", "ok", false},
		{"dashed empty body", "1/1/23, 9:00 - Dan:", "1/1/23", "9:00", "Dan", "", false},
		{"bracketed system", "[01/02/2023, 10:15:00] Messages and calls are end-to-end encrypted.", "01/02/2023", "10:15:00", SystemSender, "Messages and calls are end-to-end encrypted.", true},
		{"dashed system", "01/02/2023, 10:15 - Alice created group \"Trip\"", "01/02/2023", "10:15", SystemSender, "Alice created group \"Trip\"", true},
		{"body with colon url", "[01/02/2023, 10:15:00] Alice: http://example.com", "01/02/2023", "10:15:00", "Alice", "http://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := MatchLine(tt.line)
			if !ok {
				t.Fatalf("MatchLine(%q) did not match", tt.line)
			}
			if e.Date != tt.date || e.Time != tt.time {
				t.Errorf("date/time = %q %q, want %q %q", e.Date, e.Time, tt.date, tt.time)
			}
			if e.Sender != tt.sender || e.Body != tt.body || e.System != tt.system {
				t.Errorf("got sender=%q body=%q system=%v", e.Sender, e.Body, e.System)
			}
			if e.SourceLine != tt.line {
				t.Errorf("source line = %q", e.SourceLine)
			}
		})
	}
}

func TestMatchLine_Rejects(t *testing.T) {
	for _, line := range []string{
		"world",
		"01/02/2023 just a date",
		"[01/02/2023] Alice: no time",
		"10:15 - Alice: no date",
	} {
		if _, ok := MatchLine(line); ok {
			t.Errorf("MatchLine(%q) should not match", line)
		}
	}
}

func TestSegment_Continuation(t *testing.T) {
	entries := Segment([]string{
		"[01/02/2023, 10:15:00] Alice: Hello",
		"world",
		"  indented  line ",
		"",
		"[01/02/2023, 10:16:00] Bob: Hi",
	})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Body != "Hello\nworld\n  indented  line " {
		t.Errorf("body = %q", entries[0].Body)
	}
	if entries[0].SourceLine != "[01/02/2023, 10:15:00] Alice: Hello" || entries[0].LineNo != 1 {
		t.Errorf("source = %q line %d", entries[0].SourceLine, entries[0].LineNo)
	}
	if entries[1].Sender != "Bob" || entries[1].LineNo != 5 {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestSegment_DropsLeadingUndatedLines(t *testing.T) {
	var acc Accumulator
	var got []Entry
	var e *Entry
	for i, line := range []string{"preamble", "more preamble", "[01/02/2023, 10:15:00] Alice: Hello"} {
		if acc, e = acc.Step(i+1, line); e != nil {
			got = append(got, *e)
		}
	}
	if acc.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", acc.Dropped)
	}
	if _, e = acc.Flush(); e == nil || e.Body != "Hello" {
		t.Fatalf("flush = %+v", e)
	}
	if len(got) != 0 {
		t.Errorf("nothing should be finished before flush, got %d", len(got))
	}
}

func TestAccumulator_IsAValue(t *testing.T) {
	var acc Accumulator
	acc, _ = acc.Step(1, "[01/02/2023, 10:15:00] Alice: Hello")
	before := acc
	_, _ = acc.Step(2, "world")

	_, e := before.Flush()
	if e == nil || e.Body != "Hello" {
		t.Errorf("stepping a copy must not change the original, got %+v", e)
	}
}

func TestSegment_SenderLineWithColonIsNotSystem(t *testing.T) {
	entries := Segment([]string{"[01/02/2023, 10:15:00] Re: Alice: hi"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].System || entries[0].Sender != "Re" {
		t.Errorf("got %+v", entries[0])
	}
}

func TestSegmentReader_DecodesAndNormalises(t *testing.T) {
	// UTF-8 BOM, CRLF, left-to-right mark and a narrow no-break space before PM.
	raw := "\ufeff\u200e[1/2/23, 3:07:09\u202fPM] Alice: Hi there\r\nsecond line\r\n" +
		"\u200e[1/2/23, 3:08:00\u202fPM] Bob: \u200eimage omitted\r\n"

	var entries []Entry
	stats, err := SegmentReader(context.Background(), strings.NewReader(raw), func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatalf("SegmentReader: %v", err)
	}
	if stats.Lines != 3 || stats.Entries != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Time != "3:07:09 PM" || entries[0].Body != "Hi there\nsecond line" {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Body != "image omitted" {
		t.Errorf("entry[1] body = %q", entries[1].Body)
	}
	if entries[1].SourceLine != "[1/2/23, 3:08:00 PM] Bob: image omitted" {
		t.Errorf("source line should be the normalised line, got %q", entries[1].SourceLine)
	}
}

func TestSegmentReader_UTF16(t *testing.T) {
	text := "[01/02/2023, 10:15:00] Alice: Hello\n"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, r := range text {
		buf.WriteByte(byte(r))
		buf.WriteByte(0)
	}

	var got []Entry
	if _, err := SegmentReader(context.Background(), &buf, func(e Entry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("SegmentReader: %v", err)
	}
	if len(got) != 1 || got[0].Sender != "Alice" || got[0].Body != "Hello" {
		t.Fatalf("got %+v", got)
	}
}

func TestSegmentReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	raw := "[01/02/2023, 10:15:00] Alice: one\n[01/02/2023, 10:16:00] Alice: two\n[01/02/2023, 10:17:00] Alice: three\n"

	var n int
	_, err := SegmentReader(ctx, strings.NewReader(raw), func(e Entry) error {
		n++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected emission to stop after cancel, got %d", n)
	}
}

func TestSegmentReader_EmitError(t *testing.T) {
	stop := errors.New("stop")
	_, err := SegmentReader(context.Background(), strings.NewReader("[01/02/2023, 10:15:00] A: x\n"), func(Entry) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected emit error, got %v", err)
	}
}

func TestSegmentReader_Empty(t *testing.T) {
	stats, err := SegmentReader(context.Background(), io.MultiReader(), func(Entry) error {
		t.Error("emit should not be called")
		return nil
	})
	if err != nil || stats.Entries != 0 {
		t.Errorf("stats=%+v err=%v", stats, err)
	}
}

func TestSegmentReader_LongLines(t *testing.T) {
	for _, size := range []int{100 << 10, 9 << 20} {
		long := strings.Repeat("x", size)
		raw := "[01/02/2023, 10:15:00] Alice: short\n" +
			"[01/02/2023, 10:16:00] Bob: " + long + "\n" +
			long + "\n" +
			"[01/02/2023, 10:17:00] Alice: after"

		var got []Entry
		stats, err := SegmentReader(context.Background(), strings.NewReader(raw), func(e Entry) error {
			got = append(got, e)
			return nil
		})
		if err != nil {
			t.Fatalf("size %d: SegmentReader: %v", size, err)
		}
		if stats.Lines != 4 || len(got) != 3 {
			t.Fatalf("size %d: stats = %+v, entries = %d", size, stats, len(got))
		}
		if got[1].Sender != "Bob" || len(got[1].Body) != 2*size+1 {
			t.Errorf("size %d: long entry sender=%q body len=%d", size, got[1].Sender, len(got[1].Body))
		}
		if got[2].Body != "after" {
			t.Errorf("size %d: last entry body = %q", size, got[2].Body)
		}
	}
}

func TestReadLines_TrailingNewlineAndCR(t *testing.T) {
	var lines []string
	err := readLines(strings.NewReader("a\r\n\nb\n"), func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("readLines: %v", err)
	}
	want := []string{"a", "", "b"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
