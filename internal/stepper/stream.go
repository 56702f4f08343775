package stepper

import "sync"

// Stream is a hot, stateful stream of ChangeRecords. It retains the most
// recent record for late subscribers and conflates: a subscriber that falls
// behind sees the newest record, not a backlog.
type Stream struct {
	mu     sync.Mutex
	latest ChangeRecord
	has    bool
	closed bool
	nextID int
	subs   map[int]chan ChangeRecord
}

func newStream() *Stream {
	return &Stream{subs: make(map[int]chan ChangeRecord)}
}

// Latest returns the most recent record. The second result is false until
// the first record has been published.
func (s *Stream) Latest() (ChangeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// Subscribe returns a channel that receives the latest record (if any)
// followed by every later record, conflated. The channel is closed after
// the terminal record or when cancel is called.
func (s *Stream) Subscribe() (<-chan ChangeRecord, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeRecord, 1)
	if s.has {
		ch <- s.latest
	}
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// publish stores rec as the latest record and offers it to every
// subscriber, replacing any record the subscriber has not read yet.
func (s *Stream) publish(rec ChangeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.latest = rec
	s.has = true
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- rec
	}
}

// close ends every subscription. Buffered records are still delivered.
func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
