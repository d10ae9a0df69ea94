package history

import (
	"container/list"
	"context"
	"sync"
)

// MemStore is an in-memory [Store] with LRU eviction across chat
// identifiers. The reference behaviour kept history in an unbounded global
// map; MemStore bounds the number of tracked chats so memory cannot grow
// with the number of distinct chat IDs.
//
// Safe for concurrent use.
type MemStore struct {
	mu       sync.Mutex
	maxChats int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

// memEntry is the LRU list payload.
type memEntry struct {
	chatID string
	lines  []string
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates a [MemStore] retaining at most maxChats transcripts.
// maxChats <= 0 means no bound across chats (each transcript is still capped
// at [MaxLines]).
func NewMemStore(maxChats int) *MemStore {
	return &MemStore{
		maxChats: maxChats,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get implements [Store]. Reading a transcript marks its chat as recently
// used.
func (s *MemStore) Get(_ context.Context, chatID string) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[chatID]
	if !ok {
		return Transcript{}, nil
	}
	s.order.MoveToFront(el)

	entry := el.Value.(*memEntry)
	lines := make([]string, len(entry.lines))
	copy(lines, entry.lines)
	return Transcript{Lines: lines}, nil
}

// Append implements [Store].
func (s *MemStore) Append(_ context.Context, chatID, userText, agentText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[chatID]
	if !ok {
		el = s.order.PushFront(&memEntry{chatID: chatID})
		s.entries[chatID] = el
		s.evictLocked()
	} else {
		s.order.MoveToFront(el)
	}

	entry := el.Value.(*memEntry)
	entry.lines = appendExchange(entry.lines, userText, agentText)
	return nil
}

// Chats returns the number of transcripts currently retained.
func (s *MemStore) Chats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked drops least-recently-used transcripts until the chat count is
// within maxChats. Must be called with s.mu held.
func (s *MemStore) evictLocked() {
	if s.maxChats <= 0 {
		return
	}
	for len(s.entries) > s.maxChats {
		back := s.order.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*memEntry)
		s.order.Remove(back)
		delete(s.entries, entry.chatID)
	}
}
