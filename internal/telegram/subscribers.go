package telegram

import (
	"slices"
	"sync"
)

// subscriberStore holds the chats that receive assessment notices. Chats from
// config are permanent; others come and go with /subscribe.
type subscriberStore struct {
	mu     sync.RWMutex
	static map[int64]struct{}
	data   map[int64]struct{}
}

func newSubscriberStore(static []int64) *subscriberStore {
	s := &subscriberStore{
		static: make(map[int64]struct{}, len(static)),
		data:   make(map[int64]struct{}),
	}
	for _, id := range static {
		s.static[id] = struct{}{}
	}
	return s
}

// add reports false when the chat was already subscribed.
func (s *subscriberStore) add(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.static[chatID]; ok {
		return false
	}
	if _, ok := s.data[chatID]; ok {
		return false
	}
	s.data[chatID] = struct{}{}
	return true
}

// remove reports false when the chat was not a dynamic subscriber.
func (s *subscriberStore) remove(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[chatID]; !ok {
		return false
	}
	delete(s.data, chatID)
	return true
}

func (s *subscriberStore) isStatic(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.static[chatID]
	return ok
}

// list returns every subscribed chat id in ascending order.
func (s *subscriberStore) list() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.static)+len(s.data))
	for id := range s.static {
		out = append(out, id)
	}
	for id := range s.data {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
