package chat

import (
	"testing"
	"time"

	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func msg(sender string, ts time.Time) Message {
	kind := KindText
	if sender == SystemSender {
		kind = KindSystem
	}
	return Message{ID: NextID(), Sender: sender, Timestamp: ts, Kind: kind}
}

func TestAssemble_PrimaryUserByCount(t *testing.T) {
	var msgs []Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, msg("A", at(1, i)))
	}
	for i := 0; i < 3; i++ {
		msgs = append(msgs, msg("B", at(2, i)))
	}

	conv := Assemble(msgs, nil, "")
	if conv.PrimaryUser != "A" {
		t.Fatalf("primary = %q, want A", conv.PrimaryUser)
	}
	for _, m := range conv.Messages {
		if m.IsPrimaryUser != (m.Sender == "A") {
			t.Errorf("message from %s has IsPrimaryUser=%v", m.Sender, m.IsPrimaryUser)
		}
	}
	if conv.Title != "B" {
		t.Errorf("title = %q, want B", conv.Title)
	}
	if conv.SenderCounts["A"] != 10 || conv.SenderCounts["B"] != 3 {
		t.Errorf("counts = %v", conv.SenderCounts)
	}
}

func TestAssemble_TieGoesToFirstToReachCount(t *testing.T) {
	// A appears first, but B reaches two messages first.
	msgs := []Message{
		msg("A", at(1, 1)),
		msg("B", at(1, 2)),
		msg("B", at(1, 3)),
		msg("A", at(1, 4)),
	}
	conv := Assemble(msgs, nil, "")
	if conv.PrimaryUser != "B" {
		t.Errorf("primary = %q, want B", conv.PrimaryUser)
	}
	if got := conv.Participants; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("participants = %v", got)
	}
}

func TestAssemble_HintOverridesCount(t *testing.T) {
	msgs := []Message{msg("A", at(1, 1)), msg("A", at(1, 2)), msg("B", at(1, 3))}
	conv := Assemble(msgs, nil, "B")
	if conv.PrimaryUser != "B" {
		t.Fatalf("primary = %q", conv.PrimaryUser)
	}
	if conv.Messages[2].IsPrimaryUser != true || conv.Messages[0].IsPrimaryUser {
		t.Error("flags should follow the hint")
	}
	if conv.Title != "A" {
		t.Errorf("title = %q, want A", conv.Title)
	}
}

func TestAssemble_Titles(t *testing.T) {
	tests := []struct {
		name    string
		senders []string
		want    string
	}{
		{"empty", nil, "WhatsApp Chat"},
		{"only system", []string{SystemSender}, "WhatsApp Chat"},
		{"single participant", []string{"A", "A"}, "WhatsApp Chat"},
		{"group", []string{"A", "B", "C", SystemSender}, "Group Chat (3 participants)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []Message
			for i, s := range tt.senders {
				msgs = append(msgs, msg(s, at(1, i)))
			}
			if got := Assemble(msgs, nil, "").Title; got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssemble_ExcludesSystemAndKeepsOrder(t *testing.T) {
	msgs := []Message{
		msg(SystemSender, at(5, 9)),
		msg("B", at(3, 1)), // out of order on purpose; archive order is trusted
		msg("A", at(4, 1)),
	}
	conv := Assemble(msgs, media.NewLibrary(), "")

	if len(conv.Participants) != 2 || conv.Participants[0] != "B" {
		t.Errorf("participants = %v", conv.Participants)
	}
	if _, ok := conv.SenderCounts[SystemSender]; ok {
		t.Error("system sender should not be counted")
	}
	if conv.Messages[0].IsPrimaryUser {
		t.Error("system message cannot be primary")
	}
	if !conv.StartTime.Equal(at(5, 9)) || !conv.EndTime.Equal(at(4, 1)) {
		t.Errorf("bounds = %v .. %v", conv.StartTime, conv.EndTime)
	}
	if conv.MessageCount != 3 {
		t.Errorf("count = %d", conv.MessageCount)
	}
}

func TestAssemble_Empty(t *testing.T) {
	conv := Assemble(nil, nil, "")
	if conv.StartTime != nil || conv.EndTime != nil {
		t.Error("empty conversation should have no bounds")
	}
	if conv.PrimaryUser != "" || conv.MessageCount != 0 || conv.Messages == nil {
		t.Errorf("unexpected %+v", conv)
	}
}

func TestGroupByDay(t *testing.T) {
	msgs := []Message{
		msg("A", at(1, 8)),
		msg("B", at(1, 22)),
		msg("A", at(2, 7)),
		msg("B", at(1, 23)),
	}
	groups := GroupByDay(msgs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if !groups[0].Date.Equal(at(1, 0)) || len(groups[0].Messages) != 3 {
		t.Errorf("group[0] = %v with %d messages", groups[0].Date, len(groups[0].Messages))
	}
	if !groups[1].Date.Equal(at(2, 0)) || len(groups[1].Messages) != 1 {
		t.Errorf("group[1] = %v with %d messages", groups[1].Date, len(groups[1].Messages))
	}
	if GroupByDay(nil) != nil {
		t.Error("expected nil for no messages")
	}
}

func TestNextID_Increases(t *testing.T) {
	a, b := NextID(), NextID()
	if b <= a {
		t.Errorf("ids not increasing: %d then %d", a, b)
	}
}

func TestSummarize(t *testing.T) {
	lib := media.NewLibrary()
	lib.Add(0, media.NewRecord("IMG-1.jpg", []byte("x")))
	lib.Freeze()

	msgs := []Message{msg("A", at(1, 1)), {ID: NextID(), Sender: "B", Kind: KindImage, MediaRef: "IMG-1.jpg", Timestamp: at(1, 2)}}
	s := Assemble(msgs, lib, "").Summarize()
	if s.KindCounts[KindText] != 1 || s.KindCounts[KindImage] != 1 {
		t.Errorf("kind counts = %v", s.KindCounts)
	}
	if len(s.Media) != 1 || s.Media[0].Name != "IMG-1.jpg" {
		t.Errorf("media = %+v", s.Media)
	}
}
