// Package memory provides in-memory implementations of every repository,
// holding the same uniqueness and guard invariants as the postgres schema.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/google/uuid"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store serializes every operation on one mutex. WithinTx holds the mutex for
// the whole callback and restores a snapshot when the callback fails.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	data storeData
}

type storeData struct {
	settings *attendance.Settings

	records   map[recordKey]attendance.Record
	recordIDs map[string]recordKey

	holidays  []attendance.Holiday
	leaves    []attendance.LeaveSpan
	employees []string

	personnel      map[string]payroll.Personnel
	deductionTypes map[string]payroll.DeductionType
	deductions     []payroll.Deduction
	loans          []payroll.Loan

	entries   []payroll.Entry
	snapshots map[string][]byte
}

type recordKey struct {
	EmployeeID string
	Date       string
}

func NewStore() *Store {
	return &Store{
		now: time.Now,
		data: storeData{
			records:        make(map[recordKey]attendance.Record),
			recordIDs:      make(map[string]recordKey),
			personnel:      make(map[string]payroll.Personnel),
			deductionTypes: make(map[string]payroll.DeductionType),
			snapshots:      make(map[string][]byte),
		},
	}
}

// SetNow overrides the timestamp source for created/updated columns
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

type txKey struct{}

// acquire locks the store unless ctx already runs inside one of its transactions
func (s *Store) acquire(ctx context.Context) func() {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx implements database.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	txCtx := context.WithValue(ctx, txKey{}, s)

	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		// Rollback
		s.data = snapshot
		return err
	}
	return nil
}

func (d storeData) clone() storeData {
	c := storeData{
		records:        make(map[recordKey]attendance.Record, len(d.records)),
		recordIDs:      make(map[string]recordKey, len(d.recordIDs)),
		holidays:       append([]attendance.Holiday(nil), d.holidays...),
		leaves:         append([]attendance.LeaveSpan(nil), d.leaves...),
		employees:      append([]string(nil), d.employees...),
		personnel:      make(map[string]payroll.Personnel, len(d.personnel)),
		deductionTypes: make(map[string]payroll.DeductionType, len(d.deductionTypes)),
		deductions:     append([]payroll.Deduction(nil), d.deductions...),
		loans:          append([]payroll.Loan(nil), d.loans...),
		entries:        append([]payroll.Entry(nil), d.entries...),
		snapshots:      make(map[string][]byte, len(d.snapshots)),
	}
	if d.settings != nil {
		settings := *d.settings
		c.settings = &settings
	}
	for k, v := range d.records {
		c.records[k] = v
	}
	for k, v := range d.recordIDs {
		c.recordIDs[k] = v
	}
	for k, v := range d.personnel {
		c.personnel[k] = v
	}
	for k, v := range d.deductionTypes {
		c.deductionTypes[k] = v
	}
	for k, v := range d.snapshots {
		c.snapshots[k] = v
	}
	return c
}

func newID() string {
	return uuid.New().String()
}

// dateKey is the calendar day of t in t's own location
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func inDateRange(t, from, to time.Time) bool {
	k := dateKey(t)
	return k >= dateKey(from) && k <= dateKey(to)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
