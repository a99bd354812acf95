package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatarchive/internal/archive"
	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/hermes"
	"github.com/MikeSquared-Agency/chatarchive/internal/media"
	"github.com/MikeSquared-Agency/chatarchive/internal/pipeline"
	"github.com/MikeSquared-Agency/chatarchive/internal/store"
)

// UploadResponse is returned by POST /api/v1/archives.
type UploadResponse struct {
	ID        string `json:"id"`
	Persisted bool   `json:"persisted"`
	chat.Summary
}

// ConversationResponse is a registered conversation with its id.
type ConversationResponse struct {
	ID string `json:"id"`
	*chat.Conversation
}

// uploadArchive handles POST /api/v1/archives?me=<name>
func (s *Server) uploadArchive(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if s.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("archive exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read archive: %v", err))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty archive")
		return
	}

	id := uuid.New()
	logger := s.logger.With("conversation_id", id)

	conv, err := s.pipeline.Run(r.Context(), data, pipeline.Options{
		PrimaryUser: r.URL.Query().Get("me"),
		Progress:    s.progressSink(id),
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	persisted := false
	if s.sink != nil {
		if err := s.sink.SaveConversation(r.Context(), id, conv); err != nil {
			logger.Error("failed to persist conversation", "error", err)
		} else {
			persisted = true
		}
	}

	s.registry.add(id, conv)

	if s.events != nil {
		if err := s.events.PublishParsed(parsedEvent(id, conv)); err != nil {
			logger.Warn("failed to publish conversation.parsed", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:        id.String(),
		Persisted: persisted,
		Summary:   conv.Summarize(),
	})
}

func (s *Server) progressSink(id uuid.UUID) func(pipeline.Progress) {
	if s.events == nil {
		return nil
	}
	return func(p pipeline.Progress) {
		ev := hermes.ProgressEvent{
			UploadID: id.String(),
			Stage:    string(p.Stage),
			Percent:  p.Percent,
			Message:  p.Message,
		}
		if err := s.events.PublishProgress(ev); err != nil {
			s.logger.Warn("failed to publish progress", "error", err, "conversation_id", id)
		}
	}
}

func parsedEvent(id uuid.UUID, conv *chat.Conversation) hermes.ConversationParsed {
	return hermes.ConversationParsed{
		ConversationID: id.String(),
		Title:          conv.Title,
		Participants:   conv.Participants,
		PrimaryUser:    conv.PrimaryUser,
		MessageCount:   conv.MessageCount,
		MediaCount:     conv.Media.Len(),
		StartTime:      conv.StartTime,
		EndTime:        conv.EndTime,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, archive.ErrNoTranscript),
		errors.Is(err, archive.ErrCorruptArchive),
		errors.Is(err, archive.ErrTranscriptUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// lookup finds a conversation in memory, falling back to the sink for ones
// persisted earlier. Loaded conversations carry no media.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *chat.Conversation, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return uuid.Nil, nil, false
	}
	if conv, ok := s.registry.get(id); ok {
		return id, conv, true
	}
	if s.sink == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return uuid.Nil, nil, false
	}

	conv, err := s.load(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return uuid.Nil, nil, false
	}
	if err != nil {
		s.logger.Error("failed to load conversation", "error", err, "conversation_id", id)
		writeError(w, http.StatusInternalServerError, "load conversation failed")
		return uuid.Nil, nil, false
	}
	return id, conv, true
}

func (s *Server) load(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	row, err := s.sink.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.sink.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	conv := chat.Assemble(msgs, nil, row.PrimaryUser)
	conv.Title = row.Title
	return conv, nil
}

// getConversation handles GET /api/v1/conversations/{id}
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id, conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{ID: id.String(), Conversation: conv})
}

// getDays handles GET /api/v1/conversations/{id}/days
func (s *Server) getDays(w http.ResponseWriter, r *http.Request) {
	_, conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chat.GroupByDay(conv.Messages))
}

// deleteConversation handles DELETE /api/v1/conversations/{id}
func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.registry.remove(id)
	if s.sink != nil {
		if err := s.sink.DeleteConversation(r.Context(), id); err != nil {
			s.logger.Error("failed to delete persisted conversation", "error", err, "conversation_id", id)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// getMedia handles GET /api/v1/media/{handle}
func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	h, err := media.ParseHandle(chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid media handle")
		return
	}
	rec, err := s.registry.resolve(h)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	data := rec.Bytes()
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
