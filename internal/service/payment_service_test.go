package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fqms/fees-queue-api/internal/models"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

type fakeRenderer struct{ rendered []models.Receipt }

func (f *fakeRenderer) Render(r models.Receipt) ([]byte, error) {
	f.rendered = append(f.rendered, r)
	return []byte("%PDF-1.4 " + r.ReceiptNumber), nil
}

func newPaymentFixture(t *testing.T) (*PaymentService, *QueueService, *fakeLedger, *fakeRenderer) {
	t.Helper()
	ledger := newFakeLedger()
	ledger.addCounter("c1", true)
	ledger.feeTypes["ft1"] = true
	ledger.addStudent("u1", "s1", "21CS001")
	ledger.addStudent("u2", "s2", "21CS002")
	ledger.addStudent("u3", "s3", "21CS003")
	ledger.accountants["acc-user"] = &models.AccountantDetail{
		AccountantProfile: models.AccountantProfile{ID: "a1", UserID: "acc-user", FullName: "Meera", StaffID: "ACC01"},
	}

	renderer := &fakeRenderer{}
	payments := NewPaymentService(ledger, ledger, nil, nil, nil, renderer, nil, nil, PaymentServiceConfig{})
	queue := NewQueueService(ledger, counterView{ledger}, ledger, nil, nil, nil, nil, nil, QueueServiceConfig{})
	return payments, queue, ledger, renderer
}

func enqueueThree(t *testing.T, queue *QueueService) []*EnqueueResult {
	t.Helper()
	ctx := context.Background()
	var results []*EnqueueResult
	for _, u := range []string{"u1", "u2", "u3"} {
		res, err := queue.Enqueue(ctx, u, EnqueueRequest{CounterID: "c1", FeeTypeID: "ft1", Amount: 1000})
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

func TestProcessIssuesReceipt(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	receipt, err := payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.ReceiptNumber, "REC"))
	assert.Len(t, receipt.ReceiptNumber, 11)
	assert.Equal(t, entries[0].PaymentID, receipt.PaymentID)
	assert.Equal(t, entries[0].TokenNumber, receipt.TokenNumber)
	assert.Equal(t, "Meera", receipt.AccountantName)
	assert.Equal(t, 1000.0, receipt.Amount)

	// The remaining entries close ranks.
	active, err := queue.QueueForCounter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), *active[0].EffectiveRank)
	assert.Equal(t, entries[1].TokenNumber, active[0].TokenNumber)
}

func TestProcessTwiceConflicts(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	require.NoError(t, err)

	_, err = payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestProcessUnknownEntry(t *testing.T) {
	payments, _, _, _ := newPaymentFixture(t)

	_, err := payments.Process(context.Background(), "acc-user", ProcessRequest{QueueID: "ghost"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestProcessWithoutAccountantProfile(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	entries := enqueueThree(t, queue)

	_, err := payments.Process(context.Background(), "not-an-accountant", ProcessRequest{QueueID: entries[0].PaymentID})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSkipMovesEntryToBack(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	result, err := payments.Skip(ctx, SkipRequest{QueueID: entries[0].PaymentID, CounterID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.EffectiveRank)
	assert.Greater(t, result.QueuePosition, int64(3))

	active, err := queue.QueueForCounter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, entries[1].TokenNumber, active[0].TokenNumber)
	assert.Equal(t, entries[2].TokenNumber, active[1].TokenNumber)
	assert.Equal(t, entries[0].TokenNumber, active[2].TokenNumber)
}

func TestSkipKeepsSkippedBehindLaterArrivals(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Skip(ctx, SkipRequest{QueueID: entries[0].PaymentID, CounterID: "c1"})
	require.NoError(t, err)

	// A skip of the new head puts it behind the previously skipped entry.
	_, err = payments.Skip(ctx, SkipRequest{QueueID: entries[1].PaymentID, CounterID: "c1"})
	require.NoError(t, err)

	active, err := queue.QueueForCounter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, entries[2].TokenNumber, active[0].TokenNumber)
	assert.Equal(t, entries[0].TokenNumber, active[1].TokenNumber)
	assert.Equal(t, entries[1].TokenNumber, active[2].TokenNumber)
}

func TestSkipTerminalEntryConflicts(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	require.NoError(t, err)

	_, err = payments.Skip(ctx, SkipRequest{QueueID: entries[0].PaymentID, CounterID: "c1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestRemoveDropsEntryAndClosesRanks(t *testing.T) {
	payments, queue, ledger, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	err := payments.Remove(ctx, RemoveRequest{QueueID: entries[1].PaymentID, CounterID: "c1", Reason: "student left"})
	require.NoError(t, err)

	removed := ledger.entries[entries[1].PaymentID]
	assert.Equal(t, models.StatusRemoved, removed.Status)
	require.NotNil(t, removed.RemovalReason)
	assert.Equal(t, "student left", *removed.RemovalReason)

	active, err := queue.QueueForCounter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, entries[0].TokenNumber, active[0].TokenNumber)
	assert.Equal(t, entries[2].TokenNumber, active[1].TokenNumber)
	assert.Equal(t, int64(2), *active[1].EffectiveRank)
}

func TestRemoveTerminalEntryConflicts(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	require.NoError(t, payments.Remove(ctx, RemoveRequest{QueueID: entries[0].PaymentID, CounterID: "c1", Reason: "duplicate"}))

	err := payments.Remove(ctx, RemoveRequest{QueueID: entries[0].PaymentID, CounterID: "c1", Reason: "again"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestReceiptRequiresCompletion(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Receipt(ctx, entries[0].PaymentID, "acc-user", false)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestReceiptOwnership(t *testing.T) {
	payments, queue, _, _ := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	require.NoError(t, err)

	// The owner (u1 owns s1, the first entry) can fetch it.
	receipt, err := payments.Receipt(ctx, entries[0].PaymentID, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, "21CS001", receipt.RollNumber)

	// Another student cannot.
	_, err = payments.Receipt(ctx, entries[0].PaymentID, "u2", true)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReceiptPDF(t *testing.T) {
	payments, queue, _, renderer := newPaymentFixture(t)
	ctx := context.Background()
	entries := enqueueThree(t, queue)

	_, err := payments.Process(ctx, "acc-user", ProcessRequest{QueueID: entries[0].PaymentID})
	require.NoError(t, err)

	pdf, receiptNumber, err := payments.ReceiptPDF(ctx, entries[0].PaymentID, "acc-user", false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receiptNumber, "REC"))
	assert.Contains(t, string(pdf), receiptNumber)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, entries[0].PaymentID, renderer.rendered[0].PaymentID)
}
