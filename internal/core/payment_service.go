package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing-backend/internal/cache"
)

// PaymentService is the collection balance engine: it records, corrects,
// and cancels payments while keeping each collection's balance and status
// consistent with the sum of its non-cancelled payments.
//
// Every mutating operation executes its payment write and its collection
// balance/status write inside one transaction, with the collection row
// locked FOR UPDATE so two concurrent payments against the same collection
// cannot interleave their read-modify-write of the balance.
type PaymentService interface {
	// Record validates input against the collection and creates the payment
	// plus its mode satellite, then recomputes the collection balance.
	Record(ctx context.Context, collectionID int, input PaymentInput) (*Payment, error)

	// Cancel soft-cancels a payment and reverses its balance effect.
	// Cancelling an already-cancelled payment fails instead of
	// double-reversing the balance.
	Cancel(ctx context.Context, paymentID int) (*Collection, error)

	// Update corrects a payment in place, applying the amount delta to the
	// collection balance and upserting the mode satellite.
	Update(ctx context.Context, paymentID int, input PaymentInput) (*Payment, error)

	Get(ctx context.Context, paymentID int) (*Payment, error)
	List(ctx context.Context, params ListParams) (*PaymentPage, error)
}

// ChequeInput carries the cheque satellite fields.
type ChequeInput struct {
	Number string    `json:"number"`
	Date   time.Time `json:"date"`
}

// OnlineTransferInput carries the online-transfer satellite fields.
type OnlineTransferInput struct {
	ReferenceNumber string    `json:"reference_number"`
	Date            time.Time `json:"date"`
}

// PDCInput carries the post-dated-cheque satellite fields.
type PDCInput struct {
	Number      string     `json:"number"`
	Date        time.Time  `json:"date"`
	DepositDate *time.Time `json:"deposit_date,omitempty"`
	CreditDate  *time.Time `json:"credit_date,omitempty"`
}

// PaymentInput is the request payload for recording or correcting a payment.
type PaymentInput struct {
	InvoiceNumber     string               `json:"invoice_number"`
	ORNumber          string               `json:"or_number"`
	Amount            decimal.Decimal      `json:"amount"`
	WithholdingAmount decimal.Decimal      `json:"withholding_amount"`
	HasWithholding    bool                 `json:"has_withholding"`
	Mode              PaymentMode          `json:"mode"`
	PaymentDate       time.Time            `json:"payment_date"`
	PostingDate       *time.Time           `json:"posting_date,omitempty"`
	CollectionDate    *time.Time           `json:"collection_date,omitempty"`
	InvoiceDate       *time.Time           `json:"invoice_date,omitempty"`
	Remarks           *string              `json:"remarks,omitempty"`
	Cheque            *ChequeInput         `json:"cheque,omitempty"`
	OnlineTransfer    *OnlineTransferInput `json:"online_transfer,omitempty"`
	PDC               *PDCInput            `json:"pdc,omitempty"`
}

func (in PaymentInput) validate() error {
	if in.ORNumber == "" {
		return Invalidf("or_number is required")
	}
	if in.InvoiceNumber == "" {
		return Invalidf("invoice_number is required")
	}
	if !in.Amount.IsPositive() {
		return Invalidf("payment amount must be positive")
	}
	if in.WithholdingAmount.IsNegative() {
		return Invalidf("withholding amount cannot be negative")
	}
	if in.WithholdingAmount.GreaterThan(in.Amount) {
		return Invalidf("withholding amount cannot exceed the payment amount")
	}
	if !ValidMode(in.Mode) {
		return Invalidf("unrecognized payment mode %q", in.Mode)
	}
	switch in.Mode {
	case ModeCheque:
		if in.Cheque == nil || in.Cheque.Number == "" {
			return Invalidf("cheque details are required for cheque payments")
		}
	case ModeOnlineTransfer:
		if in.OnlineTransfer == nil || in.OnlineTransfer.ReferenceNumber == "" {
			return Invalidf("transfer reference is required for online transfers")
		}
	case ModePDC:
		if in.PDC == nil || in.PDC.Number == "" {
			return Invalidf("pdc details are required for post-dated cheques")
		}
	}
	return nil
}

// PaymentPage is one page of the payment listing.
type PaymentPage struct {
	PageIndex    int       `json:"page_index"`
	PageSize     int       `json:"page_size"`
	TotalRecords int       `json:"total_records"`
	TotalPages   int       `json:"total_pages"`
	Payments     []Payment `json:"payments"`
}

type paymentService struct {
	pool *pgxpool.Pool
	cacheAside
}

// NewPaymentService constructs the balance engine backed by PostgreSQL.
func NewPaymentService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) PaymentService {
	return &paymentService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "payments").Logger()},
	}
}

const paymentColumns = `id, collection_id, invoice_number, or_number, amount, amount_paid,
	withholding_amount, has_withholding, mode, payment_date, posting_date,
	collection_date, invoice_date, remarks, is_cancelled, created_at, updated_at`

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(
		&p.ID, &p.CollectionID, &p.InvoiceNumber, &p.ORNumber, &p.Amount, &p.AmountPaid,
		&p.WithholdingAmount, &p.HasWithholding, &p.Mode, &p.PaymentDate, &p.PostingDate,
		&p.CollectionDate, &p.InvoiceDate, &p.Remarks, &p.IsCancelled, &p.CreatedAt, &p.UpdatedAt,
	)
}

// lockCollection fetches a collection row FOR UPDATE within tx.
func lockCollection(ctx context.Context, tx pgx.Tx, collectionID int) (*Collection, error) {
	col := &Collection{}
	err := tx.QueryRow(ctx, `
		SELECT id, billing_id, invoice_number, amount, balance, status, collection_date, remarks, created_at, updated_at
		FROM collections
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`,
		collectionID,
	).Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount, &col.Balance,
		&col.Status, &col.Date, &col.Remarks, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("collection %d not found", collectionID)
		}
		return nil, fmt.Errorf("lock collection %d: %w", collectionID, err)
	}
	return col, nil
}

func writeCollectionState(ctx context.Context, tx pgx.Tx, collectionID int, balance decimal.Decimal, status CollectionStatus) error {
	if _, err := tx.Exec(ctx, `
		UPDATE collections SET balance = $1, status = $2, updated_at = NOW()
		WHERE id = $3`,
		balance, status, collectionID,
	); err != nil {
		return fmt.Errorf("update collection %d balance: %w", collectionID, err)
	}
	return nil
}

func (s *paymentService) Record(ctx context.Context, collectionID int, input PaymentInput) (*Payment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	col, err := lockCollection(ctx, tx, collectionID)
	if err != nil {
		return nil, err
	}

	// Guard against a payment being applied to the wrong collection.
	if input.InvoiceNumber != col.InvoiceNumber {
		return nil, Invalidf("payment invoice number %s does not match collection invoice number %s",
			input.InvoiceNumber, col.InvoiceNumber)
	}

	var taken bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM payments
			WHERE or_number = $1 AND is_cancelled = false AND deleted_at IS NULL
		)`, input.ORNumber,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check or number: %w", err)
	}
	if taken {
		return nil, Conflictf("payment with OR number %s already exists", input.ORNumber)
	}

	amountPaid := amountPaidOf(input.Amount, input.WithholdingAmount)

	p := &Payment{}
	err = scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (collection_id, invoice_number, or_number, amount, amount_paid,
		                      withholding_amount, has_withholding, mode, payment_date,
		                      posting_date, collection_date, invoice_date, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+paymentColumns,
		collectionID, col.InvoiceNumber, input.ORNumber, input.Amount, amountPaid,
		input.WithholdingAmount, input.HasWithholding, input.Mode, input.PaymentDate,
		input.PostingDate, input.CollectionDate, input.InvoiceDate, input.Remarks,
	), p)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if err := createSatellite(ctx, tx, p.ID, input); err != nil {
		return nil, err
	}

	balance, status := applyPayment(col.Amount, col.Balance, input.Amount)
	if err := writeCollectionState(ctx, tx, col.ID, balance, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	s.invalidate(ctx, "payments:*", "payment:*", "collections:*", "collection:*")
	s.log.Info().Int("payment_id", p.ID).Int("collection_id", col.ID).
		Str("or_number", p.ORNumber).Str("status", string(status)).
		Str("balance", balance.StringFixed(2)).Msg("payment recorded")
	return p, nil
}

func (s *paymentService) Cancel(ctx context.Context, paymentID int) (*Collection, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &Payment{}
	err = scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`, paymentID,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("payment %d not found", paymentID)
		}
		return nil, fmt.Errorf("lock payment %d: %w", paymentID, err)
	}

	// Idempotence guard: a second cancellation must not reverse the
	// balance twice.
	if p.IsCancelled {
		return nil, Invalidf("payment %d is already cancelled", paymentID)
	}

	col, err := lockCollection(ctx, tx, p.CollectionID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payments SET is_cancelled = true, updated_at = NOW() WHERE id = $1`,
		paymentID,
	); err != nil {
		return nil, fmt.Errorf("cancel payment %d: %w", paymentID, err)
	}

	balance, status := reversePayment(col.Amount, col.Balance, p.Amount)
	if err := writeCollectionState(ctx, tx, col.ID, balance, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}

	col.Balance = balance
	col.Status = status
	s.invalidate(ctx, "payments:*", "payment:*", "collections:*", "collection:*")
	s.log.Info().Int("payment_id", paymentID).Int("collection_id", col.ID).
		Str("balance", balance.StringFixed(2)).Msg("payment cancelled")
	return col, nil
}

func (s *paymentService) Update(ctx context.Context, paymentID int, input PaymentInput) (*Payment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	old := &Payment{}
	err = scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`, paymentID,
	), old)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("payment %d not found", paymentID)
		}
		return nil, fmt.Errorf("lock payment %d: %w", paymentID, err)
	}
	if old.IsCancelled {
		return nil, Invalidf("payment %d is cancelled and cannot be updated", paymentID)
	}

	col, err := lockCollection(ctx, tx, old.CollectionID)
	if err != nil {
		return nil, err
	}
	if input.InvoiceNumber != col.InvoiceNumber {
		return nil, Invalidf("payment invoice number %s does not match collection invoice number %s",
			input.InvoiceNumber, col.InvoiceNumber)
	}

	// The OR number stays unique among other active payments.
	var taken bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM payments
			WHERE or_number = $1 AND id <> $2 AND is_cancelled = false AND deleted_at IS NULL
		)`, input.ORNumber, paymentID,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check or number: %w", err)
	}
	if taken {
		return nil, Conflictf("payment with OR number %s already exists", input.ORNumber)
	}

	amountPaid := amountPaidOf(input.Amount, input.WithholdingAmount)

	p := &Payment{}
	err = scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET or_number = $1, amount = $2, amount_paid = $3, withholding_amount = $4,
		    has_withholding = $5, mode = $6, payment_date = $7, posting_date = $8,
		    collection_date = $9, invoice_date = $10, remarks = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING `+paymentColumns,
		input.ORNumber, input.Amount, amountPaid, input.WithholdingAmount,
		input.HasWithholding, input.Mode, input.PaymentDate, input.PostingDate,
		input.CollectionDate, input.InvoiceDate, input.Remarks, paymentID,
	), p)
	if err != nil {
		return nil, fmt.Errorf("update payment %d: %w", paymentID, err)
	}

	if err := upsertSatellite(ctx, tx, paymentID, input); err != nil {
		return nil, err
	}

	balance, status := shiftPayment(col.Amount, col.Balance, old.Amount, input.Amount)
	if err := writeCollectionState(ctx, tx, col.ID, balance, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment update: %w", err)
	}

	s.invalidate(ctx, "payments:*", "payment:*", "collections:*", "collection:*")
	s.log.Info().Int("payment_id", paymentID).Int("collection_id", col.ID).
		Str("old_amount", old.Amount.StringFixed(2)).Str("new_amount", input.Amount.StringFixed(2)).
		Str("balance", balance.StringFixed(2)).Msg("payment corrected")
	return p, nil
}

func (s *paymentService) Get(ctx context.Context, paymentID int) (*Payment, error) {
	key := fmt.Sprintf("payment:%d", paymentID)
	cached := &Payment{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	p := &Payment{}
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.collection_id, p.invoice_number, p.or_number, p.amount, p.amount_paid,
		       p.withholding_amount, p.has_withholding, p.mode, p.payment_date, p.posting_date,
		       p.collection_date, p.invoice_date, p.remarks, p.is_cancelled, p.created_at, p.updated_at,
		       COALESCE(cd.name, '')
		FROM payments p
		JOIN collections c ON c.id = p.collection_id
		JOIN billings b ON b.id = c.billing_id
		LEFT JOIN client_departments cd ON cd.id = b.department_id
		WHERE p.id = $1 AND p.deleted_at IS NULL`,
		paymentID,
	).Scan(
		&p.ID, &p.CollectionID, &p.InvoiceNumber, &p.ORNumber, &p.Amount, &p.AmountPaid,
		&p.WithholdingAmount, &p.HasWithholding, &p.Mode, &p.PaymentDate, &p.PostingDate,
		&p.CollectionDate, &p.InvoiceDate, &p.Remarks, &p.IsCancelled, &p.CreatedAt, &p.UpdatedAt,
		&p.DepartmentName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("payment %d not found", paymentID)
		}
		return nil, fmt.Errorf("get payment %d: %w", paymentID, err)
	}

	s.write(ctx, key, p)
	return p, nil
}

func (s *paymentService) List(ctx context.Context, params ListParams) (*PaymentPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("payments:page:%d:size:%d:search:%s", params.PageIndex, params.PageSize, params.Search)
	cached := &PaymentPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "p.deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += " AND (p.invoice_number ILIKE $1 OR p.or_number ILIKE $1 OR cd.name ILIKE $1)"
	}

	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM payments p
		JOIN collections c ON c.id = p.collection_id
		JOIN billings b ON b.id = c.billing_id
		LEFT JOIN client_departments cd ON cd.id = b.department_id
		WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.collection_id, p.invoice_number, p.or_number, p.amount, p.amount_paid,
		       p.withholding_amount, p.has_withholding, p.mode, p.payment_date, p.posting_date,
		       p.collection_date, p.invoice_date, p.remarks, p.is_cancelled, p.created_at, p.updated_at,
		       COALESCE(cd.name, '')
		FROM payments p
		JOIN collections c ON c.id = p.collection_id
		JOIN billings b ON b.id = c.billing_id
		LEFT JOIN client_departments cd ON cd.id = b.department_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.CollectionID, &p.InvoiceNumber, &p.ORNumber, &p.Amount, &p.AmountPaid,
			&p.WithholdingAmount, &p.HasWithholding, &p.Mode, &p.PaymentDate, &p.PostingDate,
			&p.CollectionDate, &p.InvoiceDate, &p.Remarks, &p.IsCancelled, &p.CreatedAt, &p.UpdatedAt,
			&p.DepartmentName,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	page := &PaymentPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Payments:     payments,
	}
	s.write(ctx, key, page)
	return page, nil
}
