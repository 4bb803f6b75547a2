package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing-backend/internal/cache"
)

// bulkChunkSize bounds the number of billings written per transaction
// during a bulk import. Chunks are not atomic with each other.
const bulkChunkSize = 10

// BillingService manages the invoice lifecycle: creation (single and bulk),
// cancellation with an audit trail, and revival of cancelled invoice
// numbers. Creating a billing always derives its paired collection in the
// same transaction.
type BillingService interface {
	Create(ctx context.Context, input BillingInput) (*BillingWithCollection, error)
	CreateBulk(ctx context.Context, rows []BulkBillingInput) (*BulkResult, error)
	// Cancel writes a CancelledInvoice audit row and marks the billing
	// cancelled. The billing and its collection are retained.
	Cancel(ctx context.Context, billingID int, remarks string) (*CancelledInvoice, error)
	Get(ctx context.Context, billingID int) (*Billing, error)
	Update(ctx context.Context, billingID int, input BillingInput) (*Billing, error)
	List(ctx context.Context, params BillingListParams) (*BillingPage, error)
}

// BillingInput is the request payload for creating or updating a billing.
type BillingInput struct {
	ClientID      *int            `json:"client_id,omitempty"`
	DepartmentID  int             `json:"department_id"`
	BranchID      *int            `json:"branch_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Discount      decimal.Decimal `json:"discount"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BillingDate   time.Time       `json:"billing_date"`
	Type          string          `json:"type"`
}

func (in BillingInput) validate() error {
	if in.InvoiceNumber == "" {
		return Invalidf("invoice_number is required")
	}
	if in.Type == "" {
		return Invalidf("billing type is required")
	}
	if !in.Amount.IsPositive() || !in.TotalAmount.IsPositive() {
		return Invalidf("billing amounts must be positive")
	}
	if in.Month < 1 || in.Month > 12 {
		return Invalidf("billing month must be between 1 and 12")
	}
	if in.Year < 2000 {
		return Invalidf("billing year %d is out of range", in.Year)
	}
	return nil
}

// BulkBillingInput is one row of a bulk import. The department is matched
// by normalized name because imports originate from spreadsheets, not ids.
type BulkBillingInput struct {
	DepartmentName string          `json:"department_name"`
	InvoiceNumber  string          `json:"invoice_number"`
	Amount         decimal.Decimal `json:"amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	Discount       decimal.Decimal `json:"discount"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	BillingDate    time.Time       `json:"billing_date"`
	Type           string          `json:"type"`
}

// SkippedRow reports one bulk-import row that was not written and why.
type SkippedRow struct {
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// BulkResult summarizes a bulk import.
type BulkResult struct {
	CreatedCount int          `json:"created_count"`
	SkippedCount int          `json:"skipped_count"`
	Skipped      []SkippedRow `json:"skipped"`
	Billings     []Billing    `json:"billings"`
}

// BillingWithCollection pairs a billing with the collection derived from it.
type BillingWithCollection struct {
	Billing    Billing    `json:"billing"`
	Collection Collection `json:"collection"`
}

// BillingListParams extends pagination with the billing filters.
type BillingListParams struct {
	ListParams
	Type  string `json:"type"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// BillingPage is one page of billings plus the aggregate figures used by
// the unbilled-departments report.
type BillingPage struct {
	PageIndex    int       `json:"page_index"`
	PageSize     int       `json:"page_size"`
	TotalRecords int       `json:"total_records"`
	TotalPages   int       `json:"total_pages"`
	Billings     []Billing `json:"billings"`

	TotalAmount       decimal.Decimal `json:"total_amount"`
	DepartmentsBilled int             `json:"departments_billed"`
	ActiveDepartments int             `json:"active_departments"`
}

type billingService struct {
	pool *pgxpool.Pool
	cacheAside
}

// NewBillingService constructs a BillingService backed by PostgreSQL.
func NewBillingService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) BillingService {
	return &billingService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "billings").Logger()},
	}
}

const billingColumns = `id, client_id, department_id, branch_id, invoice_number, amount,
	total_amount, vat_amount, discount, month, year, billing_date, type,
	is_cancelled, created_at, updated_at`

func scanBilling(row pgx.Row, b *Billing) error {
	return row.Scan(
		&b.ID, &b.ClientID, &b.DepartmentID, &b.BranchID, &b.InvoiceNumber, &b.Amount,
		&b.TotalAmount, &b.VATAmount, &b.Discount, &b.Month, &b.Year, &b.BillingDate,
		&b.Type, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt,
	)
}

func (s *billingService) Create(ctx context.Context, input BillingInput) (*BillingWithCollection, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var clientID int
	err = tx.QueryRow(ctx,
		`SELECT client_id FROM client_departments WHERE id = $1 AND deleted_at IS NULL`,
		input.DepartmentID,
	).Scan(&clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client department %d not found", input.DepartmentID)
		}
		return nil, fmt.Errorf("resolve department %d: %w", input.DepartmentID, err)
	}
	if input.ClientID == nil {
		input.ClientID = &clientID
	}

	// The invoice number is unique among non-cancelled billings only. A
	// cancelled billing holding this number is revived in place so the
	// number is not duplicated across rows.
	existing := &Billing{}
	err = scanBilling(tx.QueryRow(ctx, `
		SELECT `+billingColumns+`
		FROM billings
		WHERE invoice_number = $1 AND deleted_at IS NULL
		FOR UPDATE`, input.InvoiceNumber,
	), existing)
	switch {
	case err == nil && !existing.IsCancelled:
		return nil, Conflictf("billing with invoice number %s already exists", input.InvoiceNumber)
	case err == nil:
		return s.revive(ctx, tx, existing.ID, input)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("check invoice number: %w", err)
	}

	result, err := insertBillingWithCollection(ctx, tx, input)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit billing: %w", err)
	}

	s.invalidate(ctx, "billings:*", "billing:*", "collections:*", "collection:*")
	s.log.Info().Int("billing_id", result.Billing.ID).
		Str("invoice_number", result.Billing.InvoiceNumber).Msg("billing created")
	return result, nil
}

// revive updates a cancelled billing in place, clears its cancelled flag,
// and resets its collection for the new charge. Same primary id, same
// invoice number, fresh lifecycle.
func (s *billingService) revive(ctx context.Context, tx pgx.Tx, billingID int, input BillingInput) (*BillingWithCollection, error) {
	b := &Billing{}
	err := scanBilling(tx.QueryRow(ctx, `
		UPDATE billings
		SET client_id = $1, department_id = $2, branch_id = $3, amount = $4,
		    total_amount = $5, vat_amount = $6, discount = $7, month = $8,
		    year = $9, billing_date = $10, type = $11, is_cancelled = false,
		    updated_at = NOW()
		WHERE id = $12
		RETURNING `+billingColumns,
		input.ClientID, input.DepartmentID, input.BranchID, input.Amount,
		input.TotalAmount, input.VATAmount, input.Discount, input.Month,
		input.Year, input.BillingDate, input.Type, billingID,
	), b)
	if err != nil {
		return nil, fmt.Errorf("revive billing %d: %w", billingID, err)
	}

	col := &Collection{}
	err = tx.QueryRow(ctx, `
		UPDATE collections
		SET amount = $1, balance = 0, status = 'pending', collection_date = $2, updated_at = NOW()
		WHERE billing_id = $3 AND deleted_at IS NULL
		RETURNING id, billing_id, invoice_number, amount, balance, status, collection_date, remarks, created_at, updated_at`,
		input.TotalAmount, input.BillingDate, billingID,
	).Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount, &col.Balance,
		&col.Status, &col.Date, &col.Remarks, &col.CreatedAt, &col.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		col, err = insertCollection(ctx, tx, b)
	}
	if err != nil {
		return nil, fmt.Errorf("reset collection for billing %d: %w", billingID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit billing revival: %w", err)
	}

	s.invalidate(ctx, "billings:*", "billing:*", "collections:*", "collection:*")
	s.log.Info().Int("billing_id", b.ID).Str("invoice_number", b.InvoiceNumber).
		Msg("cancelled billing revived")
	return &BillingWithCollection{Billing: *b, Collection: *col}, nil
}

func insertBillingWithCollection(ctx context.Context, tx pgx.Tx, input BillingInput) (*BillingWithCollection, error) {
	b := &Billing{}
	err := scanBilling(tx.QueryRow(ctx, `
		INSERT INTO billings (client_id, department_id, branch_id, invoice_number, amount,
		                      total_amount, vat_amount, discount, month, year, billing_date, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+billingColumns,
		input.ClientID, input.DepartmentID, input.BranchID, input.InvoiceNumber, input.Amount,
		input.TotalAmount, input.VATAmount, input.Discount, input.Month, input.Year,
		input.BillingDate, input.Type,
	), b)
	if err != nil {
		return nil, fmt.Errorf("insert billing: %w", err)
	}

	col, err := insertCollection(ctx, tx, b)
	if err != nil {
		return nil, err
	}
	return &BillingWithCollection{Billing: *b, Collection: *col}, nil
}

// insertCollection derives the initial collection for a billing: the full
// total owed, an untouched zero balance, pending status.
func insertCollection(ctx context.Context, tx pgx.Tx, b *Billing) (*Collection, error) {
	col := &Collection{}
	err := tx.QueryRow(ctx, `
		INSERT INTO collections (billing_id, invoice_number, amount, balance, status, collection_date)
		VALUES ($1, $2, $3, 0, 'pending', $4)
		RETURNING id, billing_id, invoice_number, amount, balance, status, collection_date, remarks, created_at, updated_at`,
		b.ID, b.InvoiceNumber, b.TotalAmount, b.BillingDate,
	).Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount, &col.Balance,
		&col.Status, &col.Date, &col.Remarks, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert collection for billing %d: %w", b.ID, err)
	}
	return col, nil
}

func (s *billingService) CreateBulk(ctx context.Context, rows []BulkBillingInput) (*BulkResult, error) {
	if len(rows) == 0 {
		return nil, Invalidf("no billing rows supplied")
	}

	// Pre-fetch the department map keyed by normalized name.
	type deptRef struct {
		id       int
		clientID int
	}
	departments := map[string]deptRef{}
	deptRows, err := s.pool.Query(ctx,
		`SELECT id, client_id, name FROM client_departments WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	defer deptRows.Close()
	for deptRows.Next() {
		var d deptRef
		var name string
		if err := deptRows.Scan(&d.id, &d.clientID, &name); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments[normalizeName(name)] = d
	}
	if err := deptRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}

	// Pre-fetch which of the incoming invoice numbers are already active.
	numbers := make([]string, 0, len(rows))
	for _, r := range rows {
		numbers = append(numbers, r.InvoiceNumber)
	}
	active := map[string]bool{}
	numRows, err := s.pool.Query(ctx, `
		SELECT invoice_number FROM billings
		WHERE invoice_number = ANY($1) AND is_cancelled = false AND deleted_at IS NULL`,
		numbers)
	if err != nil {
		return nil, fmt.Errorf("check invoice numbers: %w", err)
	}
	defer numRows.Close()
	for numRows.Next() {
		var n string
		if err := numRows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan invoice number: %w", err)
		}
		active[n] = true
	}
	if err := numRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice numbers: %w", err)
	}

	result := &BulkResult{}
	var pending []BillingInput

	for _, row := range rows {
		if row.InvoiceNumber == "" {
			result.Skipped = append(result.Skipped, SkippedRow{Reason: "missing invoice number"})
			continue
		}
		if active[row.InvoiceNumber] {
			result.Skipped = append(result.Skipped, SkippedRow{
				InvoiceNumber: row.InvoiceNumber,
				Reason:        "invoice number already active",
			})
			continue
		}
		dept, ok := departments[normalizeName(row.DepartmentName)]
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRow{
				InvoiceNumber: row.InvoiceNumber,
				Reason:        fmt.Sprintf("department %q not found", strings.TrimSpace(row.DepartmentName)),
			})
			continue
		}
		clientID := dept.clientID
		input := BillingInput{
			ClientID:      &clientID,
			DepartmentID:  dept.id,
			InvoiceNumber: row.InvoiceNumber,
			Amount:        row.Amount,
			TotalAmount:   row.TotalAmount,
			VATAmount:     row.VATAmount,
			Discount:      row.Discount,
			Month:         row.Month,
			Year:          row.Year,
			BillingDate:   row.BillingDate,
			Type:          row.Type,
		}
		if err := input.validate(); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				InvoiceNumber: row.InvoiceNumber,
				Reason:        err.Error(),
			})
			continue
		}
		// Marking the number active here also drops in-batch duplicates.
		active[row.InvoiceNumber] = true
		pending = append(pending, input)
	}

	// Write in bounded chunks; each chunk is one transaction, chunks are
	// independent of each other.
	for start := 0; start < len(pending); start += bulkChunkSize {
		end := min(start+bulkChunkSize, len(pending))
		chunk := pending[start:end]

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin bulk chunk: %w", err)
		}
		created := make([]Billing, 0, len(chunk))
		for _, input := range chunk {
			bc, err := insertBillingWithCollection(ctx, tx, input)
			if err != nil {
				tx.Rollback(ctx)
				return nil, fmt.Errorf("bulk insert %s: %w", input.InvoiceNumber, err)
			}
			created = append(created, bc.Billing)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit bulk chunk: %w", err)
		}
		result.Billings = append(result.Billings, created...)
	}

	result.CreatedCount = len(result.Billings)
	result.SkippedCount = len(result.Skipped)

	s.invalidate(ctx, "billings:*", "billing:*", "collections:*", "collection:*")
	s.log.Info().Int("created", result.CreatedCount).Int("skipped", result.SkippedCount).
		Msg("bulk billings imported")
	return result, nil
}

func (s *billingService) Cancel(ctx context.Context, billingID int, remarks string) (*CancelledInvoice, error) {
	if remarks == "" {
		return nil, Invalidf("cancellation remarks are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &Billing{}
	err = scanBilling(tx.QueryRow(ctx, `
		SELECT `+billingColumns+`
		FROM billings
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`, billingID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("billing %d not found", billingID)
		}
		return nil, fmt.Errorf("lock billing %d: %w", billingID, err)
	}
	if b.IsCancelled {
		return nil, Invalidf("billing %d is already cancelled", billingID)
	}

	audit := &CancelledInvoice{}
	err = tx.QueryRow(ctx, `
		INSERT INTO cancelled_invoices (billing_id, invoice_number, amount, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id, billing_id, invoice_number, amount, remarks, created_at`,
		b.ID, b.InvoiceNumber, b.TotalAmount, remarks,
	).Scan(&audit.ID, &audit.BillingID, &audit.InvoiceNumber, &audit.Amount,
		&audit.Remarks, &audit.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cancelled invoice audit: %w", err)
	}

	// The billing row and its collection are retained; only the flag flips.
	if _, err := tx.Exec(ctx,
		`UPDATE billings SET is_cancelled = true, updated_at = NOW() WHERE id = $1`,
		b.ID,
	); err != nil {
		return nil, fmt.Errorf("mark billing %d cancelled: %w", b.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}

	s.invalidate(ctx, "billings:*", "billing:*", "collections:*", "collection:*")
	s.log.Info().Int("billing_id", b.ID).Str("invoice_number", b.InvoiceNumber).
		Msg("billing cancelled")
	return audit, nil
}

func (s *billingService) Get(ctx context.Context, billingID int) (*Billing, error) {
	key := fmt.Sprintf("billing:%d", billingID)
	cached := &Billing{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	b := &Billing{}
	err := s.pool.QueryRow(ctx, `
		SELECT b.id, b.client_id, b.department_id, b.branch_id, b.invoice_number, b.amount,
		       b.total_amount, b.vat_amount, b.discount, b.month, b.year, b.billing_date,
		       b.type, b.is_cancelled, b.created_at, b.updated_at, COALESCE(cd.name, '')
		FROM billings b
		LEFT JOIN client_departments cd ON cd.id = b.department_id
		WHERE b.id = $1 AND b.deleted_at IS NULL`,
		billingID,
	).Scan(&b.ID, &b.ClientID, &b.DepartmentID, &b.BranchID, &b.InvoiceNumber, &b.Amount,
		&b.TotalAmount, &b.VATAmount, &b.Discount, &b.Month, &b.Year, &b.BillingDate,
		&b.Type, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt, &b.DepartmentName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("billing %d not found", billingID)
		}
		return nil, fmt.Errorf("get billing %d: %w", billingID, err)
	}

	s.write(ctx, key, b)
	return b, nil
}

func (s *billingService) Update(ctx context.Context, billingID int, input BillingInput) (*Billing, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	b := &Billing{}
	err := scanBilling(s.pool.QueryRow(ctx, `
		UPDATE billings
		SET client_id = COALESCE($1, client_id), department_id = $2, branch_id = $3,
		    amount = $4, total_amount = $5, vat_amount = $6, discount = $7,
		    month = $8, year = $9, billing_date = $10, type = $11, updated_at = NOW()
		WHERE id = $12 AND deleted_at IS NULL
		RETURNING `+billingColumns,
		input.ClientID, input.DepartmentID, input.BranchID, input.Amount,
		input.TotalAmount, input.VATAmount, input.Discount, input.Month,
		input.Year, input.BillingDate, input.Type, billingID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("billing %d not found", billingID)
		}
		return nil, fmt.Errorf("update billing %d: %w", billingID, err)
	}

	s.invalidate(ctx, "billings:*", "billing:*")
	return b, nil
}

func (s *billingService) List(ctx context.Context, params BillingListParams) (*BillingPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("billings:page:%d:size:%d:search:%s:type:%s:month:%d:year:%d",
		params.PageIndex, params.PageSize, params.Search, params.Type, params.Month, params.Year)
	cached := &BillingPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "b.deleted_at IS NULL"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if params.Search != "" {
		ph := arg("%" + params.Search + "%")
		where += fmt.Sprintf(" AND (b.invoice_number ILIKE %s OR cd.name ILIKE %s)", ph, ph)
	}
	if params.Type != "" {
		where += " AND b.type = " + arg(params.Type)
	}
	if params.Month != 0 {
		where += " AND b.month = " + arg(params.Month)
	}
	if params.Year != 0 {
		where += " AND b.year = " + arg(params.Year)
	}

	from := `
		FROM billings b
		LEFT JOIN client_departments cd ON cd.id = b.department_id
		WHERE ` + where

	var total int
	var totalAmount decimal.Decimal
	var departmentsBilled int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(SUM(b.total_amount), 0), COUNT(DISTINCT b.department_id)`+from,
		args...,
	).Scan(&total, &totalAmount, &departmentsBilled); err != nil {
		return nil, fmt.Errorf("aggregate billings: %w", err)
	}

	var activeDepartments int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM client_departments
		WHERE status = 'active' AND deleted_at IS NULL`,
	).Scan(&activeDepartments); err != nil {
		return nil, fmt.Errorf("count active departments: %w", err)
	}

	limitPh := arg(params.PageSize)
	offsetPh := arg(params.offset())
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.client_id, b.department_id, b.branch_id, b.invoice_number, b.amount,
		       b.total_amount, b.vat_amount, b.discount, b.month, b.year, b.billing_date,
		       b.type, b.is_cancelled, b.created_at, b.updated_at, COALESCE(cd.name, '')`+
		from+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT `+limitPh+` OFFSET `+offsetPh,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query billings: %w", err)
	}
	defer rows.Close()

	billings := []Billing{}
	for rows.Next() {
		var b Billing
		if err := rows.Scan(&b.ID, &b.ClientID, &b.DepartmentID, &b.BranchID, &b.InvoiceNumber,
			&b.Amount, &b.TotalAmount, &b.VATAmount, &b.Discount, &b.Month, &b.Year,
			&b.BillingDate, &b.Type, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt,
			&b.DepartmentName); err != nil {
			return nil, fmt.Errorf("scan billing: %w", err)
		}
		billings = append(billings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billings: %w", err)
	}

	page := &BillingPage{
		PageIndex:         params.PageIndex,
		PageSize:          params.PageSize,
		TotalRecords:      total,
		TotalPages:        totalPages(total, params.PageSize),
		Billings:          billings,
		TotalAmount:       totalAmount,
		DepartmentsBilled: departmentsBilled,
		ActiveDepartments: activeDepartments,
	}
	s.write(ctx, key, page)
	return page, nil
}
