package media

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultContentType is used for extensions missing from the table.
const DefaultContentType = "application/octet-stream"

// Handle is an opaque, revocable locator for a Record's bytes.
type Handle uuid.UUID

func (h Handle) String() string { return uuid.UUID(h).String() }

func (h Handle) MarshalText() ([]byte, error) { return uuid.UUID(h).MarshalText() }

func (h *Handle) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(h).UnmarshalText(b)
}

// ParseHandle parses the string form produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, err
	}
	return Handle(id), nil
}

// Record is a single extracted media file.
type Record struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Handle      Handle `json:"handle"`

	bytes []byte
}

// NewRecord builds a record from an archive entry name. The name is reduced to
// its base, and the record takes ownership of data.
func NewRecord(entryName string, data []byte) Record {
	name := BaseName(entryName)
	return Record{
		Name:        name,
		ContentType: ContentType(name),
		Size:        len(data),
		bytes:       data,
	}
}

// Bytes returns the payload. Callers must not modify it.
func (r Record) Bytes() []byte { return r.bytes }

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"3gp":  "video/3gpp",
	"opus": "audio/opus",
	"ogg":  "audio/ogg",
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"ptt":  "audio/ogg", // voice note
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// ContentType maps a file name to its MIME type by extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[extension(name)]; ok {
		return ct
	}
	return DefaultContentType
}

// IsMedia reports whether name carries one of the known media extensions.
func IsMedia(name string) bool {
	_, ok := contentTypes[extension(name)]
	return ok
}

// BaseName strips any directory prefix from an archive entry name.
func BaseName(entryName string) string {
	entryName = strings.TrimRight(entryName, "/")
	if entryName == "" {
		return ""
	}
	return path.Base(entryName)
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
