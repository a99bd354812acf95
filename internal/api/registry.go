package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/media"
)

// registry owns the conversations the service has parsed. The registry is the
// pipeline caller, so it is the one that releases their media.
type registry struct {
	mu    sync.RWMutex
	convs map[uuid.UUID]*chat.Conversation
}

func newRegistry() *registry {
	return &registry{convs: make(map[uuid.UUID]*chat.Conversation)}
}

func (r *registry) add(id uuid.UUID, conv *chat.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[id] = conv
}

func (r *registry) get(id uuid.UUID) (*chat.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.convs[id]
	return conv, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.convs)
}

// remove forgets a conversation and revokes its media handles.
func (r *registry) remove(id uuid.UUID) bool {
	r.mu.Lock()
	conv, ok := r.convs[id]
	delete(r.convs, id)
	r.mu.Unlock()

	if ok && conv.Media != nil {
		conv.Media.Release()
	}
	return ok
}

func (r *registry) releaseAll() {
	r.mu.Lock()
	convs := r.convs
	r.convs = make(map[uuid.UUID]*chat.Conversation)
	r.mu.Unlock()

	for _, conv := range convs {
		if conv.Media != nil {
			conv.Media.Release()
		}
	}
}

// resolve finds the media record behind a handle in any live conversation.
func (r *registry) resolve(h media.Handle) (media.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, conv := range r.convs {
		if conv.Media == nil {
			continue
		}
		if rec, err := conv.Media.Resolve(h); err == nil {
			return rec, nil
		}
	}
	return media.Record{}, media.ErrUnknownHandle
}
