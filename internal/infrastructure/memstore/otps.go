package memstore

import (
	"sync"
	"time"

	"github.com/go-auth-gateway/internal/domain"
)

// ConsumeResult is the outcome of an atomic code consumption attempt.
type ConsumeResult int

const (
	ConsumeOK ConsumeResult = iota
	ConsumeNotFound
	ConsumeMismatch
	ConsumeExpired
)

// OtpStore is a process-scoped store of pending one-time codes keyed by
// subject (email). All operations are safe for concurrent use; Consume
// performs the whole lookup/compare/expire/delete sequence under one lock so
// that exactly one of any number of concurrent submissions of a valid code
// can succeed.
//
// The background sweep is memory reclamation only — expiry is enforced by
// Consume, never by sweep timing.
type OtpStore struct {
	mu      sync.RWMutex
	records map[string]domain.OtpRecord

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewOtpStore creates the store and, when sweepInterval > 0, starts the
// background sweeper. Callers own the store's lifecycle and must Close it on
// shutdown.
func NewOtpStore(sweepInterval time.Duration) *OtpStore {
	s := &OtpStore{
		records: make(map[string]domain.OtpRecord),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		s.ticker = time.NewTicker(sweepInterval)
		go s.sweepLoop()
	}
	return s
}

// Set unconditionally replaces any pending record for subject with a new one
// expiring at now+ttl. Reissuing invalidates the previous code.
func (s *OtpStore) Set(subject, code string, ttl time.Duration) {
	rec := domain.OtpRecord{Code: code, ExpiresAt: time.Now().Add(ttl)}
	s.mu.Lock()
	s.records[subject] = rec
	s.mu.Unlock()
}

// Get returns the pending record for subject, if any. It is a pure lookup:
// an expired record is still returned — expiry is enforced by Consume.
func (s *OtpStore) Get(subject string) (domain.OtpRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[subject]
	return rec, ok
}

// Delete removes the record for subject; no-op when absent.
func (s *OtpStore) Delete(subject string) {
	s.mu.Lock()
	delete(s.records, subject)
	s.mu.Unlock()
}

// Consume atomically validates and retires the pending code for subject.
// A mismatch leaves the record in place so the caller may retry within the
// expiry window; expiry and success both remove it (single use).
func (s *OtpStore) Consume(subject, code string) ConsumeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[subject]
	if !ok {
		return ConsumeNotFound
	}
	if rec.Code != code {
		return ConsumeMismatch
	}
	delete(s.records, subject)
	if time.Now().After(rec.ExpiresAt) {
		return ConsumeExpired
	}
	return ConsumeOK
}

// Close stops the background sweeper. Safe to call more than once.
func (s *OtpStore) Close() {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
}

func (s *OtpStore) sweepLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep collects expired subjects under a read lock, then deletes them one at
// a time, rechecking expiry per key so a record reissued between the snapshot
// and the delete is never dropped. Foreground traffic is blocked for at most
// one record inspection at a time.
func (s *OtpStore) sweep(now time.Time) {
	s.mu.RLock()
	var expired []string
	for subject, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			expired = append(expired, subject)
		}
	}
	s.mu.RUnlock()

	for _, subject := range expired {
		s.mu.Lock()
		if rec, ok := s.records[subject]; ok && now.After(rec.ExpiresAt) {
			delete(s.records, subject)
		}
		s.mu.Unlock()
	}
}
