package memory

import (
	"context"
	"sync"

	"pixbridge/internal/domain/payment"
)

// StatusStore keeps charge status in process memory. Contents are lost on
// restart and are not shared between instances.
type StatusStore struct {
	mu   sync.Mutex
	data map[string]payment.Status
}

func NewStatusStore() *StatusStore {
	return &StatusStore{data: make(map[string]payment.Status)}
}

func (s *StatusStore) MarkPending(_ context.Context, txid string) error {
	s.set(txid, payment.StatusPending)
	return nil
}

func (s *StatusStore) MarkPaid(_ context.Context, txid string) error {
	s.set(txid, payment.StatusPaid)
	return nil
}

func (s *StatusStore) Consume(_ context.Context, txid string) (payment.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.data[txid]
	if !ok {
		return payment.StatusNotFound, nil
	}
	if st == payment.StatusPaid {
		delete(s.data, txid)
	}
	return st, nil
}

// Len reports how many charges are tracked.
func (s *StatusStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *StatusStore) set(txid string, st payment.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[txid] = st
}
