package chat

import (
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

const defaultTitle = "WhatsApp Chat"

// Assemble builds the conversation from messages in transcript order. The
// slice is taken over by the conversation and is never re-sorted. An empty
// hint selects the sender with the most messages as primary user.
func Assemble(msgs []Message, lib *media.Library, hint string) *Conversation {
	conv := &Conversation{
		Participants: []string{},
		SenderCounts: make(map[string]int),
		Messages:     msgs,
		MessageCount: len(msgs),
		Media:        lib,
	}
	if conv.Messages == nil {
		conv.Messages = []Message{}
	}

	leader, best := "", 0
	for _, m := range msgs {
		if m.Sender == SystemSender {
			continue
		}
		n := conv.SenderCounts[m.Sender] + 1
		conv.SenderCounts[m.Sender] = n
		if n == 1 {
			conv.Participants = append(conv.Participants, m.Sender)
		}
		// Strictly greater: on a tie the sender that reached the count first keeps it.
		if n > best {
			leader, best = m.Sender, n
		}
	}

	conv.PrimaryUser = hint
	if conv.PrimaryUser == "" {
		conv.PrimaryUser = leader
	}
	for i := range conv.Messages {
		conv.Messages[i].IsPrimaryUser = conv.PrimaryUser != "" && conv.Messages[i].Sender == conv.PrimaryUser
	}

	conv.Title = title(conv.Participants, conv.PrimaryUser)

	if len(msgs) > 0 {
		start := msgs[0].Timestamp
		end := msgs[len(msgs)-1].Timestamp
		conv.StartTime = &start
		conv.EndTime = &end
	}
	return conv
}

func title(participants []string, primary string) string {
	switch {
	case len(participants) == 2:
		for _, p := range participants {
			if p != primary {
				return p
			}
		}
		return participants[0]
	case len(participants) > 2:
		return fmt.Sprintf("Group Chat (%d participants)", len(participants))
	default:
		return defaultTitle
	}
}

// GroupByDay buckets messages by calendar day. Groups appear in the order
// their day is first seen; a day that recurs later joins its existing group.
func GroupByDay(msgs []Message) []DayGroup {
	if len(msgs) == 0 {
		return nil
	}

	var groups []DayGroup
	index := make(map[time.Time]int)
	for _, m := range msgs {
		y, mo, d := m.Timestamp.Date()
		day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}

// Summary is the message-free view of a conversation.
type Summary struct {
	Title        string         `json:"title"`
	Participants []string       `json:"participants"`
	PrimaryUser  string         `json:"primary_user,omitempty"`
	StartTime    *time.Time     `json:"start_time,omitempty"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	MessageCount int            `json:"message_count"`
	SenderCounts map[string]int `json:"sender_counts"`
	KindCounts   map[Kind]int   `json:"kind_counts"`
	Media        []media.Record `json:"media"`
}

// Summarize returns the conversation without its messages.
func (c *Conversation) Summarize() Summary {
	s := Summary{
		Title:        c.Title,
		Participants: c.Participants,
		PrimaryUser:  c.PrimaryUser,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		MessageCount: c.MessageCount,
		SenderCounts: c.SenderCounts,
		KindCounts:   make(map[Kind]int),
		Media:        []media.Record{},
	}
	for _, m := range c.Messages {
		s.KindCounts[m.Kind]++
	}
	if c.Media != nil {
		s.Media = c.Media.Records()
	}
	return s
}
