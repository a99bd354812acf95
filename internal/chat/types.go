// Package chat holds the parsed conversation model and assembles it.
package chat

import (
	"sync/atomic"
	"time"

	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

// SystemSender is reserved for system-generated lines.
const SystemSender = "System"

// Kind classifies message content.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindSystem   Kind = "system"
	KindDeleted  Kind = "deleted"
)

// IsMedia reports whether messages of this kind may link a media record.
func (k Kind) IsMedia() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument:
		return true
	}
	return false
}

// Message is a single classified chat message. Timestamps are wall-clock
// values stored in UTC; the export carries no zone. SourceLine is the first
// physical line as decoded, with directional marks removed and no-break
// spaces turned into plain spaces.
type Message struct {
	ID            uint64    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Sender        string    `json:"sender"`
	Text          string    `json:"text"`
	Kind          Kind      `json:"kind"`
	MediaRef      string    `json:"media_ref,omitempty"`
	IsPrimaryUser bool      `json:"is_primary_user"`
	SourceLine    string    `json:"source_line"`
}

var lastID atomic.Uint64

// NextID returns a process-unique, increasing message id.
func NextID() uint64 { return lastID.Add(1) }

// Conversation is the finished model handed to presentation collaborators.
// Media is borrowed: whoever ran the pipeline releases it.
type Conversation struct {
	Title        string         `json:"title"`
	Participants []string       `json:"participants"`
	PrimaryUser  string         `json:"primary_user,omitempty"`
	StartTime    *time.Time     `json:"start_time,omitempty"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	MessageCount int            `json:"message_count"`
	SenderCounts map[string]int `json:"sender_counts"`
	Messages     []Message      `json:"messages"`
	Media        *media.Library `json:"-"`
}

// DayGroup is the set of messages that fall on one calendar day.
type DayGroup struct {
	Date     time.Time `json:"date"`
	Messages []Message `json:"messages"`
}
