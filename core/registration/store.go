package registration

import (
	"sync"
	"time"
)

type draft struct {
	form    Form
	expires time.Time
}

// Store holds draft forms in memory. A draft expires ttl after its last change.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	drafts map[string]*draft

	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]*draft),
		stop:   make(chan struct{}),
	}
}

func (s *Store) Add(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[f.ID] = &draft{form: f.clone(), expires: s.now().Add(s.ttl)}
}

func (s *Store) get(id string) (*draft, bool) {
	d, ok := s.drafts[id]
	if !ok || s.now().After(d.expires) {
		return nil, false
	}
	return d, true
}

func (s *Store) Get(id string) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.get(id)
	if !ok {
		return Form{}, ErrNotFound
	}
	return d.form.clone(), nil
}

// Update applies fn to a copy of the draft, and stores the copy if fn succeeds.
func (s *Store) Update(id string, fn func(*Form) error) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.get(id)
	if !ok {
		return Form{}, ErrNotFound
	}
	f := d.form.clone()
	if err := fn(&f); err != nil {
		return Form{}, err
	}
	d.form = f
	d.expires = s.now().Add(s.ttl)
	return f.clone(), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(id); !ok {
		return ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// purge removes expired drafts.
func (s *Store) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, d := range s.drafts {
		if now.After(d.expires) {
			delete(s.drafts, id)
		}
	}
}

// StartJanitor purges expired drafts every interval until Stop is called.
func (s *Store) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.purge()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
