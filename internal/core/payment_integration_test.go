package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/cache"
	"billing-backend/internal/core"
)

func newPaymentService(pool *pgxpool.Pool) core.PaymentService {
	return core.NewPaymentService(pool, cache.NewMemory(), zerolog.Nop())
}

// seedCollection creates a billing (and its collection) and returns the
// collection id.
func seedCollection(t *testing.T, pool *pgxpool.Pool, invoice, amount string) int {
	t.Helper()
	result, err := newBillingService(pool).Create(context.Background(), billingInput(invoice, amount))
	require.NoError(t, err)
	return result.Collection.ID
}

func cashPayment(invoice, orNumber, amount string) core.PaymentInput {
	return core.PaymentInput{
		InvoiceNumber: invoice,
		ORNumber:      orNumber,
		Amount:        decimal.RequireFromString(amount),
		Mode:          core.ModeCash,
		PaymentDate:   time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func collectionState(t *testing.T, pool *pgxpool.Pool, id int) (decimal.Decimal, core.CollectionStatus) {
	t.Helper()
	var balance decimal.Decimal
	var status core.CollectionStatus
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT balance, status FROM collections WHERE id = $1`, id).Scan(&balance, &status))
	return balance, status
}

func TestPaymentService_PartialThenFull(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-500", "1000")
	svc := newPaymentService(pool)

	p1, err := svc.Record(ctx, colID, cashPayment("INV-500", "OR-001", "400"))
	require.NoError(t, err)
	assert.True(t, p1.AmountPaid.Equal(decimal.RequireFromString("400")))

	balance, status := collectionState(t, pool, colID)
	assert.True(t, balance.Equal(decimal.RequireFromString("600")), "balance = %s", balance)
	assert.Equal(t, core.CollectionPending, status)

	_, err = svc.Record(ctx, colID, cashPayment("INV-500", "OR-002", "600"))
	require.NoError(t, err)

	balance, status = collectionState(t, pool, colID)
	assert.True(t, balance.IsZero())
	assert.Equal(t, core.CollectionPaid, status)
}

func TestPaymentService_InvoiceMismatchRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-510", "1000")
	svc := newPaymentService(pool)

	_, err := svc.Record(ctx, colID, cashPayment("INV-999", "OR-010", "400"))
	assert.True(t, core.IsInvalid(err), "mismatched invoice must be rejected, got %v", err)

	// Nothing was written and the collection is untouched.
	var payments int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&payments))
	assert.Equal(t, 0, payments)

	balance, status := collectionState(t, pool, colID)
	assert.True(t, balance.IsZero())
	assert.Equal(t, core.CollectionPending, status)
}

func TestPaymentService_DuplicateORNumberRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-520", "1000")
	svc := newPaymentService(pool)

	_, err := svc.Record(ctx, colID, cashPayment("INV-520", "OR-020", "100"))
	require.NoError(t, err)

	_, err = svc.Record(ctx, colID, cashPayment("INV-520", "OR-020", "100"))
	assert.True(t, core.IsConflict(err), "duplicate active OR number must conflict, got %v", err)
}

func TestPaymentService_CancelReversesAndORIsFreed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-530", "1000")
	svc := newPaymentService(pool)

	p, err := svc.Record(ctx, colID, cashPayment("INV-530", "OR-030", "1000"))
	require.NoError(t, err)

	_, status := collectionState(t, pool, colID)
	require.Equal(t, core.CollectionPaid, status)

	col, err := svc.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, col.Balance.IsZero(), "full payment reversal restores the untouched state")
	assert.Equal(t, core.CollectionPending, col.Status)

	// The freed OR number is usable again.
	_, err = svc.Record(ctx, colID, cashPayment("INV-530", "OR-030", "500"))
	require.NoError(t, err)
}

func TestPaymentService_CancelTwiceRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-540", "1000")
	svc := newPaymentService(pool)

	p, err := svc.Record(ctx, colID, cashPayment("INV-540", "OR-040", "400"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, p.ID)
	assert.True(t, core.IsInvalid(err), "double cancel must not double-reverse, got %v", err)

	// The balance reflects exactly one reversal.
	balance, status := collectionState(t, pool, colID)
	assert.True(t, balance.Equal(decimal.RequireFromString("1000")), "balance = %s", balance)
	assert.Equal(t, core.CollectionPending, status)
}

func TestPaymentService_ChequeSatellite(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-550", "1000")
	svc := newPaymentService(pool)

	in := cashPayment("INV-550", "OR-050", "400")
	in.Mode = core.ModeCheque
	in.Cheque = &core.ChequeInput{
		Number: "CHQ-123",
		Date:   time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
	}

	p, err := svc.Record(ctx, colID, in)
	require.NoError(t, err)

	var chequeNumber string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT cheque_number FROM payment_cheques WHERE payment_id = $1`, p.ID).Scan(&chequeNumber))
	assert.Equal(t, "CHQ-123", chequeNumber)
}

func TestPaymentService_ChequeWithoutDetailsRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-560", "1000")
	svc := newPaymentService(pool)

	in := cashPayment("INV-560", "OR-060", "400")
	in.Mode = core.ModeCheque

	_, err := svc.Record(ctx, colID, in)
	assert.True(t, core.IsInvalid(err))
}

func TestPaymentService_UpdateShiftsBalanceAndSwapsSatellite(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-570", "1000")
	svc := newPaymentService(pool)

	in := cashPayment("INV-570", "OR-070", "400")
	in.Mode = core.ModeCheque
	in.Cheque = &core.ChequeInput{
		Number: "CHQ-900",
		Date:   time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	p, err := svc.Record(ctx, colID, in)
	require.NoError(t, err)

	// Correct the amount and switch the mode to an online transfer.
	upd := cashPayment("INV-570", "OR-070", "700")
	upd.Mode = core.ModeOnlineTransfer
	upd.OnlineTransfer = &core.OnlineTransferInput{
		ReferenceNumber: "REF-1",
		Date:            time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
	}
	updated, err := svc.Update(ctx, p.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, core.ModeOnlineTransfer, updated.Mode)

	balance, status := collectionState(t, pool, colID)
	assert.True(t, balance.Equal(decimal.RequireFromString("300")), "balance = %s", balance)
	assert.Equal(t, core.CollectionPending, status)

	// The stale cheque satellite is gone, replaced by the transfer record.
	var cheques, transfers int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM payment_cheques WHERE payment_id = $1`, p.ID).Scan(&cheques))
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM payment_online_transfers WHERE payment_id = $1`, p.ID).Scan(&transfers))
	assert.Equal(t, 0, cheques)
	assert.Equal(t, 1, transfers)
}

func TestPaymentService_WithholdingSplitsAmountPaid(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-580", "1000")
	svc := newPaymentService(pool)

	in := cashPayment("INV-580", "OR-080", "1000")
	in.HasWithholding = true
	in.WithholdingAmount = decimal.RequireFromString("20")

	p, err := svc.Record(ctx, colID, in)
	require.NoError(t, err)

	// The gross amount settles the collection; the net is what was received.
	assert.True(t, p.AmountPaid.Equal(decimal.RequireFromString("980")), "amount paid = %s", p.AmountPaid)

	_, status := collectionState(t, pool, colID)
	assert.Equal(t, core.CollectionPaid, status)
}

func TestPaymentService_ConcurrentPaymentsSerialize(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	colID := seedCollection(t, pool, "INV-590", "1000")
	svc := newPaymentService(pool)

	// Ten concurrent 100-peso payments must land exactly on zero with no
	// lost updates.
	var wg sync.WaitGroup
	errCh := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Record(ctx, colID, cashPayment("INV-590", fmt.Sprintf("OR-59%d", n), "100"))
			if err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent record error: %v", err)
	}

	balance, status := collectionState(t, pool, colID)
	assert.True(t, balance.IsZero(), "balance = %s", balance)
	assert.Equal(t, core.CollectionPaid, status)
}
