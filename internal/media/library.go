package media

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrReleased is returned when resolving a handle after Release.
	ErrReleased = errors.New("media library released")
	// ErrUnknownHandle is returned for handles the library never issued.
	ErrUnknownHandle = errors.New("unknown media handle")
)

// Library maps bare file names to extracted records and owns their handles.
//
// Records are added during extraction with the index of the archive entry they
// came from. Freeze fixes the iteration order to archive order so lookups are
// deterministic regardless of the order concurrent workers finished in. The
// caller that created the Library is responsible for calling Release once the
// conversation built on it is discarded.
type Library struct {
	mu       sync.RWMutex
	byName   map[string]entry
	byHandle map[Handle]string
	order    []string
	frozen   bool
	released bool
}

type entry struct {
	index  int
	record Record
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		byName:   make(map[string]entry),
		byHandle: make(map[Handle]string),
	}
}

// Add inserts rec under its bare name, issuing a fresh handle. A later archive
// entry with the same bare name replaces an earlier one; an earlier entry
// never replaces a later one. Add after Freeze or Release is ignored.
func (l *Library) Add(index int, rec Record) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen || l.released {
		return Record{}, false
	}
	if prev, ok := l.byName[rec.Name]; ok {
		if prev.index > index {
			return Record{}, false
		}
		delete(l.byHandle, prev.record.Handle)
	}

	rec.Handle = Handle(uuid.New())
	l.byName[rec.Name] = entry{index: index, record: rec}
	l.byHandle[rec.Handle] = rec.Name
	return rec, true
}

// Freeze makes the library read-only and fixes name order to archive order.
func (l *Library) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return
	}
	l.order = make([]string, 0, len(l.byName))
	for name := range l.byName {
		l.order = append(l.order, name)
	}
	sort.Slice(l.order, func(i, j int) bool {
		return l.byName[l.order[i]].index < l.byName[l.order[j]].index
	})
	l.frozen = true
}

// Len returns the number of records.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byName)
}

// Names returns record names in archive order. Before Freeze the order is
// unspecified.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frozen {
		out := make([]string, len(l.order))
		copy(out, l.order)
		return out
	}
	out := make([]string, 0, len(l.byName))
	for name := range l.byName {
		out = append(out, name)
	}
	return out
}

// Get returns the record stored under name.
func (l *Library) Get(name string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.released {
		return Record{}, false
	}
	e, ok := l.byName[name]
	return e.record, ok
}

// Records returns all records in Names order.
func (l *Library) Records() []Record {
	names := l.Names()

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, len(names))
	for _, name := range names {
		if e, ok := l.byName[name]; ok {
			out = append(out, e.record)
		}
	}
	return out
}

// Resolve returns the record a handle refers to.
func (l *Library) Resolve(h Handle) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.released {
		return Record{}, ErrReleased
	}
	name, ok := l.byHandle[h]
	if !ok {
		return Record{}, ErrUnknownHandle
	}
	return l.byName[name].record, nil
}

// Release revokes every handle and drops the payloads. It is safe to call
// more than once.
func (l *Library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return
	}
	l.released = true
	for name, e := range l.byName {
		e.record.bytes = nil
		l.byName[name] = e
	}
	clear(l.byHandle)
}

// Released reports whether Release has been called.
func (l *Library) Released() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.released
}
