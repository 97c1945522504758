// Package memory provides an in-process Store used as the default backend
// and as the fixture for service tests. It counts reads and writes so tests
// can assert cache hits and no-write-on-error behavior.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"khata/internal/core"
	"khata/internal/store"
)

type Store struct {
	mu          sync.Mutex
	labours     map[string]core.Labour
	pairs       map[string]core.LinkedPair
	wages       []core.WageEntry
	payments    []core.Payment
	adjustments []core.Adjustment

	reads  int
	writes int

	// FailNextWrite makes the next mutating call fail, for testing
	// mid-sequence store failures. FailNextRead does the same for reads.
	FailNextWrite error
	FailNextRead  error
}

func New() *Store {
	return &Store{
		labours: make(map[string]core.Labour),
		pairs:   make(map[string]core.LinkedPair),
	}
}

// Reads returns the number of read operations performed so far.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Writes returns the number of write operations performed so far.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) write() error {
	if err := s.FailNextWrite; err != nil {
		s.FailNextWrite = nil
		return err
	}
	s.writes++
	return nil
}

func (s *Store) read() error {
	if err := s.FailNextRead; err != nil {
		s.FailNextRead = nil
		return err
	}
	s.reads++
	return nil
}

func (s *Store) CreateLabour(_ context.Context, l core.Labour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return err
	}
	l.Tags = append([]string(nil), l.Tags...)
	s.labours[l.ID] = l
	return nil
}

func (s *Store) GetLabour(_ context.Context, id string) (core.Labour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return core.Labour{}, err
	}
	l, ok := s.labours[id]
	if !ok {
		return core.Labour{}, store.ErrNotFound
	}
	return l, nil
}

func (s *Store) GetLabourByCode(_ context.Context, org, code string) (core.Labour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return core.Labour{}, err
	}
	for _, l := range s.labours {
		if l.Org == org && strings.EqualFold(l.Code, code) {
			return l, nil
		}
	}
	return core.Labour{}, store.ErrNotFound
}

func (s *Store) UpdateLabour(_ context.Context, id string, upd store.LabourUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labours[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Gender != nil {
		l.Gender = *upd.Gender
	}
	if upd.Status != nil {
		l.Status = *upd.Status
	}
	if upd.Tags != nil {
		l.Tags = append([]string(nil), *upd.Tags...)
	}
	if upd.VehicleID != nil {
		l.VehicleID = *upd.VehicleID
	}
	if upd.OpeningBalance != nil {
		l.OpeningBalance = *upd.OpeningBalance
	}
	s.labours[id] = l
	return nil
}

func (s *Store) DeleteLabour(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.labours[id]; !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	delete(s.labours, id)
	return nil
}

func (s *Store) ListLabours(_ context.Context, f store.LabourFilter) ([]core.Labour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.Labour
	for _, l := range s.labours {
		if f.Org != "" && l.Org != f.Org {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) SetLabourLink(_ context.Context, id, pairID string, linked bool, balance core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labours[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	l.PairID = pairID
	l.IsLinked = linked
	l.CurrentBalance = balance
	s.labours[id] = l
	return nil
}

func (s *Store) AdjustLabourBalance(_ context.Context, id string, balanceDelta, earnedDelta, paidDelta core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labours[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	l.CurrentBalance = l.CurrentBalance.Add(balanceDelta)
	l.TotalEarned = l.TotalEarned.Add(earnedDelta)
	l.TotalPaid = l.TotalPaid.Add(paidDelta)
	s.labours[id] = l
	return nil
}

func (s *Store) CreatePair(_ context.Context, p core.LinkedPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return err
	}
	s.pairs[p.ID] = p
	return nil
}

func (s *Store) GetPair(_ context.Context, id string) (core.LinkedPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return core.LinkedPair{}, err
	}
	p, ok := s.pairs[id]
	if !ok {
		return core.LinkedPair{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) DeletePair(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairs[id]; !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	delete(s.pairs, id)
	return nil
}

func (s *Store) ListPairs(_ context.Context, org string) ([]core.LinkedPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.LinkedPair
	for _, p := range s.pairs {
		if org != "" && p.Org != org {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AdjustPairBalance(_ context.Context, id string, delta core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.write(); err != nil {
		return err
	}
	p.SharedBalance = p.SharedBalance.Add(delta)
	s.pairs[id] = p
	return nil
}

func (s *Store) CreateWageEntry(_ context.Context, e core.WageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return err
	}
	s.wages = append(s.wages, e)
	return nil
}

func (s *Store) GetWageEntry(_ context.Context, id string) (core.WageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return core.WageEntry{}, err
	}
	for _, e := range s.wages {
		if e.ID == id {
			return e, nil
		}
	}
	return core.WageEntry{}, store.ErrNotFound
}

func (s *Store) ListWageEntries(_ context.Context, f store.WageFilter) ([]core.WageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.WageEntry
	for _, e := range s.wages {
		if f.Org != "" && e.Org != f.Org {
			continue
		}
		if len(f.LabourIDs) > 0 && !containsID(f.LabourIDs, e.LabourID) {
			continue
		}
		if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.CreatedAt.After(f.To) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) ListUnsyncedWageEntries(_ context.Context, limit int) ([]core.WageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.WageEntry
	for _, e := range s.wages {
		if e.Synced {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkWageEntrySynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.wages {
		if s.wages[i].ID == id {
			if err := s.write(); err != nil {
				return err
			}
			s.wages[i].Synced = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return err
	}
	p.Allocations = append([]core.PaymentAllocation(nil), p.Allocations...)
	s.payments = append(s.payments, p)
	return nil
}

func (s *Store) ListPayments(_ context.Context, f store.PaymentFilter) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.Payment
	for _, p := range s.payments {
		if f.Org != "" && p.Org != f.Org {
			continue
		}
		if f.PairID != "" && p.PairID != f.PairID {
			continue
		}
		if f.LabourID != "" {
			if _, ok := p.AllocationFor(f.LabourID); !ok {
				continue
			}
		}
		if !f.From.IsZero() && p.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && p.Date.After(f.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) CreateAdjustment(_ context.Context, a core.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return err
	}
	s.adjustments = append(s.adjustments, a)
	return nil
}

func (s *Store) ListAdjustments(_ context.Context, f store.AdjustmentFilter) ([]core.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	var out []core.Adjustment
	for _, a := range s.adjustments {
		if f.Org != "" && a.Org != f.Org {
			continue
		}
		if f.PairID != "" && a.PairID != f.PairID {
			continue
		}
		if len(f.LabourIDs) > 0 && !containsID(f.LabourIDs, a.LabourID) {
			continue
		}
		if !f.From.IsZero() && a.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.Date.After(f.To) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var _ store.Store = (*Store)(nil)
