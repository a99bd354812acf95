// Package archive opens exported chat containers and pulls out the transcript
// and media entries.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

var (
	// ErrCorruptArchive is returned when the container cannot be opened.
	ErrCorruptArchive = errors.New("archive is not a readable zip container")
	// ErrNoTranscript is returned when no entry matches a transcript name.
	ErrNoTranscript = errors.New("no chat transcript found in archive")
	// ErrTranscriptUnreadable is returned when the transcript entry cannot be read.
	ErrTranscriptUnreadable = errors.New("chat transcript could not be read")
)

// transcriptPatterns are tried in order against each entry's base name.
var transcriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^_chat\.txt$`),
	regexp.MustCompile(`(?i)^chat\.txt$`),
	regexp.MustCompile(`(?i)^WhatsApp Chat.*\.txt$`),
	regexp.MustCompile(`(?i)\.txt$`),
}

// Entry is a media candidate inside the archive. Index is the entry's
// position in the container and decides which duplicate name wins.
type Entry struct {
	Index int
	Name  string
	file  *zip.File
}

// Reader is an opened archive with its transcript located.
type Reader struct {
	zr         *zip.Reader
	transcript *zip.File
	media      []Entry
}

// Open reads the container from data and locates the transcript.
func Open(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if isDir(f) {
			names = append(names, "")
			continue
		}
		names = append(names, f.Name)
	}

	idx, ok := FindTranscript(names)
	if !ok {
		return nil, ErrNoTranscript
	}

	r := &Reader{zr: zr, transcript: zr.File[idx]}
	for i, f := range zr.File {
		if i == idx || isDir(f) || !media.IsMedia(f.Name) {
			continue
		}
		r.media = append(r.media, Entry{Index: i, Name: f.Name, file: f})
	}
	return r, nil
}

// FindTranscript returns the index of the transcript among entry names.
// Patterns are tried in priority order; within a pattern the first entry in
// archive order wins. Empty names are skipped.
func FindTranscript(names []string) (int, bool) {
	for _, pattern := range transcriptPatterns {
		for i, name := range names {
			if name == "" {
				continue
			}
			if pattern.MatchString(media.BaseName(name)) {
				return i, true
			}
		}
	}
	return -1, false
}

// TranscriptName returns the full entry name of the transcript.
func (r *Reader) TranscriptName() string { return r.transcript.Name }

// Media returns the media entries in archive order.
func (r *Reader) Media() []Entry { return r.media }

// ReadTranscript returns the raw transcript bytes.
func (r *Reader) ReadTranscript() ([]byte, error) {
	data, err := readFile(r.transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTranscriptUnreadable, r.transcript.Name, err)
	}
	return data, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// The zip reader rejects payloads longer than the declared size, so the
	// read is bounded by the archive itself.
	return io.ReadAll(rc)
}

func isDir(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}
