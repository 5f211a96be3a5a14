package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fqms/fees-queue-api/internal/models"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

// fakeLedger is an in-memory stand-in for the queue, counter and identity
// repositories. Positions are drawn from per-counter sequences the same way
// the SQL layer draws them; the mutex stands in for the database's
// serialization of the sequence draw.
type fakeLedger struct {
	mu          sync.Mutex
	entries     map[string]*models.QueueEntry
	counters    map[string]*models.CounterDetail
	feeTypes    map[string]bool
	profiles    map[string]*models.StudentProfile
	accountants map[string]*models.AccountantDetail
	nextSeq     map[string]int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		entries:     map[string]*models.QueueEntry{},
		counters:    map[string]*models.CounterDetail{},
		feeTypes:    map[string]bool{},
		profiles:    map[string]*models.StudentProfile{},
		accountants: map[string]*models.AccountantDetail{},
		nextSeq:     map[string]int64{},
	}
}

func (f *fakeLedger) addCounter(id string, active bool) {
	f.counters[id] = &models.CounterDetail{Counter: models.Counter{
		ID: id, CounterNumber: len(f.counters) + 1, CounterName: "Counter " + id, Active: active,
	}}
}

func (f *fakeLedger) addStudent(userID, studentID, roll string) {
	f.profiles[userID] = &models.StudentProfile{ID: studentID, UserID: userID, FullName: "Student " + roll, RollNumber: roll}
}

func (f *fakeLedger) draw(counterID string) int64 {
	f.nextSeq[counterID]++
	return f.nextSeq[counterID]
}

func (f *fakeLedger) Insert(ctx context.Context, entry *models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	counter, ok := f.counters[entry.CounterID]
	if !ok || !counter.Active {
		return sql.ErrNoRows
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = models.StatusPending
	entry.QueuePosition = f.draw(entry.CounterID)
	clone := *entry
	f.entries[entry.ID] = &clone
	return nil
}

func (f *fakeLedger) HasActiveEntry(ctx context.Context, studentID, counterID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.StudentID == studentID && e.CounterID == counterID && e.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) detail(e *models.QueueEntry) models.QueueEntryDetail {
	d := models.QueueEntryDetail{QueueEntry: *e, FeeType: "Tuition"}
	if c, ok := f.counters[e.CounterID]; ok {
		d.CounterName = c.CounterName
		d.CounterNumber = c.CounterNumber
	}
	for _, p := range f.profiles {
		if p.ID == e.StudentID {
			d.StudentName = p.FullName
			d.RollNumber = p.RollNumber
		}
	}
	if e.AssignedTo != nil {
		for _, a := range f.accountants {
			if a.ID == *e.AssignedTo {
				name := a.FullName
				d.ProcessedBy = &name
			}
		}
	}
	return d
}

func (f *fakeLedger) FindByID(ctx context.Context, id string) (*models.QueueEntryDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := f.detail(e)
	return &d, nil
}

func (f *fakeLedger) activeSorted(counterID string) []*models.QueueEntry {
	var active []*models.QueueEntry
	for _, e := range f.entries {
		if e.CounterID == counterID && e.Status.Active() {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].QueuePosition < active[j].QueuePosition })
	return active
}

func (f *fakeLedger) ActiveByCounter(ctx context.Context, counterID string) ([]models.QueueEntryDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntryDetail
	for i, e := range f.activeSorted(counterID) {
		d := f.detail(e)
		rank := int64(i + 1)
		d.EffectiveRank = &rank
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeLedger) CurrentOfCounter(ctx context.Context, counterID string) (*models.QueueEntryDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	active := f.activeSorted(counterID)
	if len(active) == 0 {
		return nil, sql.ErrNoRows
	}
	d := f.detail(active[0])
	return &d, nil
}

func (f *fakeLedger) ByStudent(ctx context.Context, studentID string) ([]models.QueueEntryDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntryDetail
	for _, e := range f.entries {
		if e.StudentID != studentID {
			continue
		}
		d := f.detail(e)
		if e.Status.Active() {
			var rank int64 = 1
			for _, other := range f.activeSorted(e.CounterID) {
				if other.QueuePosition < e.QueuePosition {
					rank++
				}
			}
			d.EffectiveRank = &rank
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLedger) Complete(ctx context.Context, entryID, accountantID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || !e.Status.Active() {
		return sql.ErrNoRows
	}
	e.Status = models.StatusCompleted
	e.AssignedTo = &accountantID
	e.ProcessedAt = &at
	return nil
}

func (f *fakeLedger) Reposition(ctx context.Context, entryID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || !e.Status.Active() {
		return 0, sql.ErrNoRows
	}
	e.QueuePosition = f.draw(e.CounterID)
	return e.QueuePosition, nil
}

func (f *fakeLedger) Remove(ctx context.Context, entryID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || !e.Status.Active() {
		return sql.ErrNoRows
	}
	e.Status = models.StatusRemoved
	e.RemovalReason = &reason
	e.RemovedAt = &at
	return nil
}

func (f *fakeLedger) StatsForCounter(ctx context.Context, counterID string, dayStart time.Time) (*models.QueueStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.QueueStats{CounterID: counterID}
	for _, e := range f.entries {
		if e.CounterID != counterID {
			continue
		}
		if e.Status.Active() {
			stats.QueueCount++
		}
		if e.Status == models.StatusCompleted && e.ProcessedAt != nil && !e.ProcessedAt.Before(dayStart) {
			stats.ProcessedToday++
			stats.RevenueToday += e.Amount
		}
	}
	return stats, nil
}

func (f *fakeLedger) StatsForStudent(ctx context.Context, studentID string) (*models.StudentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.StudentStats{}
	for _, e := range f.entries {
		if e.StudentID != studentID {
			continue
		}
		stats.TotalPayments++
		switch {
		case e.Status == models.StatusCompleted:
			stats.PaidAmount += e.Amount
		case e.Status.Active():
			stats.PendingAmount += e.Amount
		}
	}
	return stats, nil
}

func (f *fakeLedger) RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range f.entries {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByID on counters shares a name with the entry lookup, so the counter
// side lives on a separate view type.
type counterView struct{ *fakeLedger }

func (v counterView) FindByID(ctx context.Context, id string) (*models.CounterDetail, error) {
	c, ok := v.counters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (v counterView) FeeTypeExists(ctx context.Context, id string) (bool, error) {
	return v.feeTypes[id], nil
}

func (f *fakeLedger) StudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeLedger) AccountantByUserID(ctx context.Context, userID string) (*models.AccountantDetail, error) {
	a, ok := f.accountants[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func newQueueFixture(t *testing.T) (*QueueService, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	ledger.addCounter("c1", true)
	ledger.feeTypes["ft1"] = true
	ledger.addStudent("u1", "s1", "21CS001")
	ledger.addStudent("u2", "s2", "21CS002")
	ledger.addStudent("u3", "s3", "21CS003")
	svc := NewQueueService(ledger, counterView{ledger}, ledger, nil, nil, nil, nil, nil, QueueServiceConfig{})
	return svc, ledger
}

func TestEnqueueAssignsSequentialPositions(t *testing.T) {
	svc, _ := newQueueFixture(t)
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 1000})
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, "u2", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 500})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.QueuePosition)
	assert.Equal(t, int64(2), second.QueuePosition)
	assert.Equal(t, int64(1), first.EffectiveRank)
	assert.Equal(t, int64(2), second.EffectiveRank)
	assert.True(t, strings.HasPrefix(first.TokenNumber, "TKN"))
	assert.Len(t, first.TokenNumber, 12)
	assert.NotEqual(t, first.TokenNumber, second.TokenNumber)
}

func TestEnqueueRejectsSecondActiveEntry(t *testing.T) {
	svc, _ := newQueueFixture(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 1000})
	require.NoError(t, err)

	_, err = svc.Enqueue(ctx, "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 1000})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnqueueInactiveCounter(t *testing.T) {
	svc, ledger := newQueueFixture(t)
	ledger.addCounter("closed", false)

	_, err := svc.Enqueue(context.Background(), "u1", EnqueueRequest{CounterID: "closed", FeeTypeID: "ft1", Amount: 100})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnqueueUnknownFeeType(t *testing.T) {
	svc, _ := newQueueFixture(t)

	_, err := svc.Enqueue(context.Background(), "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ghost", Amount: 100})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnqueueRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newQueueFixture(t)

	_, err := svc.Enqueue(context.Background(), "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 0})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestQueueForCounterOrdersByPosition(t *testing.T) {
	svc, _ := newQueueFixture(t)
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := svc.Enqueue(ctx, u, EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 100})
		require.NoError(t, err)
	}

	entries, err := svc.QueueForCounter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		require.NotNil(t, e.EffectiveRank)
		assert.Equal(t, int64(i+1), *e.EffectiveRank)
	}
}

func TestCurrentOfCounterIdle(t *testing.T) {
	svc, _ := newQueueFixture(t)

	current, err := svc.CurrentOfCounter(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestStatsForCounterComputesOnMiss(t *testing.T) {
	svc, _ := newQueueFixture(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 100})
	require.NoError(t, err)

	stats, cached, err := svc.StatsForCounter(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, stats.QueueCount)
	assert.Equal(t, 0, stats.ProcessedToday)
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestStatsForCounterUnknownCounter(t *testing.T) {
	svc, _ := newQueueFixture(t)

	_, _, err := svc.StatsForCounter(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentDashboardCarriesBestRank(t *testing.T) {
	svc, _ := newQueueFixture(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "u1", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 750})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, "u2", EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 300})
	require.NoError(t, err)

	dashboard, cached, err := svc.StudentDashboard(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "s2", dashboard.Student.ID)
	assert.Equal(t, 1, dashboard.Stats.TotalPayments)
	assert.Equal(t, 300.0, dashboard.Stats.PendingAmount)
	assert.Equal(t, 2, dashboard.Stats.QueuePosition)
}

func TestParallelEnqueuesDrawDistinctIncreasingPositions(t *testing.T) {
	svc, ledger := newQueueFixture(t)
	ctx := context.Background()

	const n = 40
	users := make([]string, n)
	for i := range users {
		users[i] = fmt.Sprintf("pu%d", i)
		ledger.addStudent(users[i], fmt.Sprintf("ps%d", i), fmt.Sprintf("22CS%03d", i))
	}

	results := make([]*EnqueueResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Enqueue(ctx, users[i], EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 100})
		}(i)
	}
	wg.Wait()

	positions := make([]int64, 0, n)
	tokens := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		positions = append(positions, results[i].QueuePosition)
		assert.False(t, tokens[results[i].TokenNumber], "token %s repeated", results[i].TokenNumber)
		tokens[results[i].TokenNumber] = true
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	for i, p := range positions {
		assert.Equal(t, int64(i+1), p)
	}
}

func TestTokenNumbersDistinctWithinSameMillisecond(t *testing.T) {
	svc, _ := newQueueFixture(t)
	fixed := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token := svc.newTokenNumber()
		assert.False(t, seen[token], "token %s repeated", token)
		seen[token] = true
	}
}

func TestStartOfToday(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2024, 4, 2, 23, 45, 0, 0, loc)
	start := startOfToday(at)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, time.April, start.Month())
	assert.Equal(t, 2, start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, loc, start.Location())
}
