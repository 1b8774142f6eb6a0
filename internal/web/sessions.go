package web

import (
	"sync"
	"time"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/session"
)

// entry guards one conversation. asking serializes that session's
// questions; mu guards the transcript and is never held while an answer
// streams.
type entry struct {
	asking   sync.Mutex
	mu       sync.RWMutex
	sess     *session.Session
	lastSeen time.Time
}

// sessions is the in-memory, cookie-keyed session table. When it is full the
// least recently seen session is dropped.
type sessions struct {
	mu      sync.Mutex
	byID    map[string]*entry
	max     int
	newFunc func(id string) *session.Session
	now     func() time.Time
}

func newSessions(max int, newFunc func(id string) *session.Session) *sessions {
	return &sessions{byID: make(map[string]*entry), max: max, newFunc: newFunc, now: time.Now}
}

// get returns the session for id, and whether it already existed.
func (s *sessions) get(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		e.lastSeen = s.now()
		return e, true
	}
	return nil, false
}

// create starts a new session under id.
func (s *sessions) create(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.byID) >= s.max {
		s.evictOldest()
	}
	e := &entry{sess: s.newFunc(id), lastSeen: s.now()}
	s.byID[id] = e
	return e
}

func (s *sessions) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.byID {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	delete(s.byID, oldestID)
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
