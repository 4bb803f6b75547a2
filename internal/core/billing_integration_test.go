package core_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/cache"
	"billing-backend/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "connect to test database")

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payment_cheques, payment_online_transfers, payment_pdcs,
			payments, collections, cancelled_invoices, billings,
			client_departments, client_branches, clients, users, departments, machines
		RESTART IDENTITY CASCADE;

		INSERT INTO clients (name) VALUES ('Test Hospital');
		INSERT INTO client_departments (client_id, name) VALUES
			(1, 'Radiology Department'),
			(1, 'Laboratory Department');
	`)
	require.NoError(t, err, "seed test database")

	return pool
}

func newBillingService(pool *pgxpool.Pool) core.BillingService {
	return core.NewBillingService(pool, cache.NewMemory(), zerolog.Nop())
}

func billingInput(invoice string, amount string) core.BillingInput {
	return core.BillingInput{
		DepartmentID:  1,
		InvoiceNumber: invoice,
		Amount:        decimal.RequireFromString(amount),
		TotalAmount:   decimal.RequireFromString(amount),
		Month:         6,
		Year:          2026,
		BillingDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Type:          "rental",
	}
}

func TestBillingService_CreateDerivesCollection(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	result, err := svc.Create(ctx, billingInput("INV-100", "1000"))
	require.NoError(t, err)

	assert.Equal(t, "INV-100", result.Billing.InvoiceNumber)
	assert.Equal(t, result.Billing.ID, result.Collection.BillingID)
	assert.Equal(t, "INV-100", result.Collection.InvoiceNumber)
	assert.True(t, result.Collection.Balance.IsZero(), "new collection starts untouched")
	assert.Equal(t, core.CollectionPending, result.Collection.Status)
}

func TestBillingService_DuplicateActiveInvoiceRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	_, err := svc.Create(ctx, billingInput("INV-100", "1000"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, billingInput("INV-100", "2000"))
	assert.True(t, core.IsConflict(err), "duplicate active invoice number must conflict, got %v", err)
}

func TestBillingService_CancelAndRevive(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	created, err := svc.Create(ctx, billingInput("INV-200", "1000"))
	require.NoError(t, err)

	audit, err := svc.Cancel(ctx, created.Billing.ID, "billed the wrong month")
	require.NoError(t, err)
	assert.Equal(t, created.Billing.ID, audit.BillingID)
	assert.Equal(t, "INV-200", audit.InvoiceNumber)

	// The cancelled row is retained.
	got, err := svc.Get(ctx, created.Billing.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)

	// Creating with the freed number revives the original row in place.
	revived, err := svc.Create(ctx, billingInput("INV-200", "1500"))
	require.NoError(t, err)
	assert.Equal(t, created.Billing.ID, revived.Billing.ID, "revival must reuse the original billing id")
	assert.False(t, revived.Billing.IsCancelled)
	assert.True(t, revived.Billing.Amount.Equal(decimal.RequireFromString("1500")))

	// The collection is reset to the untouched state for the new amount.
	assert.True(t, revived.Collection.Amount.Equal(decimal.RequireFromString("1500")))
	assert.True(t, revived.Collection.Balance.IsZero())
	assert.Equal(t, core.CollectionPending, revived.Collection.Status)

	// Exactly one billing row carries the number.
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM billings WHERE invoice_number = 'INV-200'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBillingService_CancelRequiresRemarks(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	created, err := svc.Create(ctx, billingInput("INV-300", "1000"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, created.Billing.ID, "")
	assert.True(t, core.IsInvalid(err), "cancel without remarks must be rejected, got %v", err)
}

func TestBillingService_CancelTwiceRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	created, err := svc.Create(ctx, billingInput("INV-310", "1000"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, created.Billing.ID, "first")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, created.Billing.ID, "second")
	assert.True(t, core.IsInvalid(err), "second cancel must be rejected, got %v", err)
}

func TestBillingService_BulkImport(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)

	// One invoice number is already taken.
	_, err := svc.Create(ctx, billingInput("BULK-007", "500"))
	require.NoError(t, err)

	rows := make([]core.BulkBillingInput, 0, 25)
	for i := 0; i < 25; i++ {
		deptName := "Radiology Department"
		switch {
		case i == 3:
			deptName = "No Such Department" // unmatched
		case i%2 == 1:
			// Spreadsheet-mangled variant of the seeded name.
			deptName = "  laboratory\u200b department "
		}
		rows = append(rows, core.BulkBillingInput{
			DepartmentName: deptName,
			InvoiceNumber:  fmt.Sprintf("BULK-%03d", i),
			Amount:         decimal.RequireFromString("100"),
			TotalAmount:    decimal.RequireFromString("100"),
			Month:          6,
			Year:           2026,
			BillingDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			Type:           "rental",
		})
	}
	// In-batch duplicate of an earlier row.
	rows[20].InvoiceNumber = "BULK-001"

	result, err := svc.CreateBulk(ctx, rows)
	require.NoError(t, err)

	// Skips: unmatched department, pre-existing BULK-007, in-batch duplicate.
	assert.Equal(t, 3, result.SkippedCount, "skipped: %+v", result.Skipped)
	assert.Equal(t, 22, result.CreatedCount)
	assert.Len(t, result.Billings, 22)

	// Every created billing has a collection.
	var collections int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM collections`).Scan(&collections))
	assert.Equal(t, 23, collections) // 22 bulk + 1 from the single create
}

func TestBillingService_ListAggregates(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	svc := newBillingService(pool)
	_, err := svc.Create(ctx, billingInput("INV-400", "1000"))
	require.NoError(t, err)

	in := billingInput("INV-401", "500")
	in.DepartmentID = 2
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	page, err := svc.List(ctx, core.BillingListParams{
		ListParams: core.ListParams{PageIndex: 1, PageSize: 20},
		Month:      6,
		Year:       2026,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalRecords)
	assert.True(t, page.TotalAmount.Equal(decimal.RequireFromString("1500")), "total = %s", page.TotalAmount)
	assert.Equal(t, 2, page.DepartmentsBilled)
	assert.Equal(t, 2, page.ActiveDepartments)
}
