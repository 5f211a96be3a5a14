package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fqms/fees-queue-api/internal/models"
	"github.com/fqms/fees-queue-api/internal/repository"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

type mockCounterRepo struct {
	counters    map[string]*models.CounterDetail
	accountants map[string]*models.AccountantDetail
	feeTypes    []models.FeeType
	created     []*models.Counter
	assigned    map[string]string
	assignErr   error
}

func newMockCounterRepo() *mockCounterRepo {
	return &mockCounterRepo{
		counters:    map[string]*models.CounterDetail{},
		accountants: map[string]*models.AccountantDetail{},
		assigned:    map[string]string{},
	}
}

func (m *mockCounterRepo) List(ctx context.Context) ([]models.CounterDetail, error) {
	out := make([]models.CounterDetail, 0, len(m.counters))
	for _, c := range m.counters {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCounterRepo) FindByID(ctx context.Context, id string) (*models.CounterDetail, error) {
	if c, ok := m.counters[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCounterRepo) Create(ctx context.Context, counter *models.Counter) error {
	m.created = append(m.created, counter)
	m.counters[counter.ID] = &models.CounterDetail{Counter: *counter}
	return nil
}

func (m *mockCounterRepo) SetActive(ctx context.Context, id string, active bool) error {
	c, ok := m.counters[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Active = active
	return nil
}

func (m *mockCounterRepo) AssignAccountant(ctx context.Context, counterID, accountantID string) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	if _, ok := m.counters[counterID]; !ok {
		return sql.ErrNoRows
	}
	m.assigned[counterID] = accountantID
	return nil
}

func (m *mockCounterRepo) ListFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	return m.feeTypes, nil
}

func (m *mockCounterRepo) AccountantByUserID(ctx context.Context, userID string) (*models.AccountantDetail, error) {
	if a, ok := m.accountants[userID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func TestCreateCounterStartsActive(t *testing.T) {
	repo := newMockCounterRepo()
	svc := NewCounterService(repo, repo, nil, nil)

	counter, err := svc.Create(context.Background(), CreateCounterRequest{CounterNumber: 3, CounterName: "Tuition"})
	require.NoError(t, err)

	assert.NotEmpty(t, counter.ID)
	assert.True(t, counter.Active)
	assert.Equal(t, 3, counter.CounterNumber)
	require.Len(t, repo.created, 1)
}

func TestCreateCounterRejectsBadNumber(t *testing.T) {
	repo := newMockCounterRepo()
	svc := NewCounterService(repo, repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateCounterRequest{CounterNumber: 0, CounterName: "Tuition"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSetActiveUnknownCounter(t *testing.T) {
	repo := newMockCounterRepo()
	svc := NewCounterService(repo, repo, nil, nil)

	err := svc.SetActive(context.Background(), "missing", SetCounterActiveRequest{Active: false})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSetActiveClosesCounter(t *testing.T) {
	repo := newMockCounterRepo()
	repo.counters["c1"] = &models.CounterDetail{Counter: models.Counter{ID: "c1", Active: true}}
	svc := NewCounterService(repo, repo, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), "c1", SetCounterActiveRequest{Active: false}))
	assert.False(t, repo.counters["c1"].Active)
}

func TestAssignAccountantValidatesID(t *testing.T) {
	repo := newMockCounterRepo()
	repo.counters["c1"] = &models.CounterDetail{Counter: models.Counter{ID: "c1", Active: true}}
	svc := NewCounterService(repo, repo, nil, nil)

	err := svc.AssignAccountant(context.Background(), "c1", AssignAccountantRequest{AccountantID: "not-a-uuid"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignAccountant(t *testing.T) {
	repo := newMockCounterRepo()
	repo.counters["c1"] = &models.CounterDetail{Counter: models.Counter{ID: "c1", Active: true}}
	svc := NewCounterService(repo, repo, nil, nil)

	err := svc.AssignAccountant(context.Background(), "c1", AssignAccountantRequest{AccountantID: "3f9d8a7e-54f2-4f4e-9a3b-2d1c0b9a8f7e"})
	require.NoError(t, err)
	assert.Equal(t, "3f9d8a7e-54f2-4f4e-9a3b-2d1c0b9a8f7e", repo.assigned["c1"])
}

func TestAssignAccountantUnknownCounter(t *testing.T) {
	repo := newMockCounterRepo()
	svc := NewCounterService(repo, repo, nil, nil)

	err := svc.AssignAccountant(context.Background(), "missing", AssignAccountantRequest{AccountantID: "3f9d8a7e-54f2-4f4e-9a3b-2d1c0b9a8f7e"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "counter not found", appErr.Message)
}

func TestAssignAccountantUnknownAccountant(t *testing.T) {
	repo := newMockCounterRepo()
	repo.counters["c1"] = &models.CounterDetail{Counter: models.Counter{ID: "c1", Active: true}}
	repo.assignErr = repository.ErrAccountantNotFound
	svc := NewCounterService(repo, repo, nil, nil)

	err := svc.AssignAccountant(context.Background(), "c1", AssignAccountantRequest{AccountantID: "3f9d8a7e-54f2-4f4e-9a3b-2d1c0b9a8f7e"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "accountant not found", appErr.Message)
}

func TestAccountantProfileNotFound(t *testing.T) {
	repo := newMockCounterRepo()
	svc := NewCounterService(repo, repo, nil, nil)

	_, err := svc.AccountantProfile(context.Background(), "ghost")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
