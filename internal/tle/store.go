package tle

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Dataset is an immutable snapshot of the loaded element histories, keyed by label.
type Dataset struct {
	LoadedAt  time.Time
	Histories map[string]*History
}

// Labels returns the dataset labels in sorted order.
func (d *Dataset) Labels() []string {
	labels := make([]string, 0, len(d.Histories))
	for l := range d.Histories {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Store provides thread-safe access to the current dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes Put
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Lookup returns the history stored under label.
func (s *Store) Lookup(label string) (*History, bool) {
	ds := s.dataset.Load()
	if ds == nil {
		return nil, false
	}
	h, ok := ds.Histories[label]
	return h, ok
}

// Put publishes a new dataset that adds or replaces h under its label.
// Readers holding the previous snapshot are unaffected.
func (s *Store) Put(h *History) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Dataset{LoadedAt: time.Now(), Histories: make(map[string]*History)}
	if cur := s.dataset.Load(); cur != nil {
		for k, v := range cur.Histories {
			next.Histories[k] = v
		}
	}
	next.Histories[h.Label] = h
	s.dataset.Store(next)
}

// AgeSeconds returns the age of the current dataset in seconds.
// Returns -1 if no dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.LoadedAt).Seconds()
}
