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

// CollectionService exposes read and bookkeeping operations over
// collections. Balance and status are owned by the payment service; this
// service never touches them outside of listing and reporting.
type CollectionService interface {
	Get(ctx context.Context, collectionID int) (*Collection, error)
	List(ctx context.Context, params CollectionListParams) (*CollectionPage, error)
	// UpdateRemarks adjusts the free-text remarks and the collection date.
	UpdateRemarks(ctx context.Context, collectionID int, remarks *string, date *time.Time) (*Collection, error)
	// Aging reports outstanding balances grouped into fixed overdue
	// buckets relative to today.
	Aging(ctx context.Context, status CollectionStatus) ([]AgingBucket, error)
}

// CollectionListParams extends pagination with an optional status filter.
type CollectionListParams struct {
	ListParams
	Status CollectionStatus `json:"status"`
}

// CollectionPage is one page of collections.
type CollectionPage struct {
	PageIndex    int          `json:"page_index"`
	PageSize     int          `json:"page_size"`
	TotalRecords int          `json:"total_records"`
	TotalPages   int          `json:"total_pages"`
	Collections  []Collection `json:"collections"`
}

// AgingBucket is one row of the receivables aging report. MaxDays is 0 for
// the open-ended 120+ bucket.
type AgingBucket struct {
	Label       string          `json:"label"`
	MinDays     int             `json:"min_days"`
	MaxDays     int             `json:"max_days,omitempty"`
	Count       int             `json:"count"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type collectionService struct {
	pool *pgxpool.Pool
	cacheAside
}

// NewCollectionService constructs a CollectionService backed by PostgreSQL.
func NewCollectionService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) CollectionService {
	return &collectionService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "collections").Logger()},
	}
}

// outstandingExpr resolves the amount still owed on a collection, encoding
// the balance double meaning: a pending collection with balance 0 has not
// been partially paid, so the full amount is outstanding.
const outstandingExpr = `CASE
	WHEN c.status = 'paid' THEN 0
	WHEN c.balance = 0 THEN c.amount
	ELSE c.balance
END`

func (s *collectionService) Get(ctx context.Context, collectionID int) (*Collection, error) {
	key := fmt.Sprintf("collection:%d", collectionID)
	cached := &Collection{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	col := &Collection{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, billing_id, invoice_number, amount, balance, status, collection_date,
		       remarks, created_at, updated_at
		FROM collections
		WHERE id = $1 AND deleted_at IS NULL`,
		collectionID,
	).Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount, &col.Balance,
		&col.Status, &col.Date, &col.Remarks, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("collection %d not found", collectionID)
		}
		return nil, fmt.Errorf("get collection %d: %w", collectionID, err)
	}

	s.write(ctx, key, col)
	return col, nil
}

func (s *collectionService) List(ctx context.Context, params CollectionListParams) (*CollectionPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Status != "" && params.Status != CollectionPending && params.Status != CollectionPaid {
		return nil, Invalidf("unknown collection status %q", params.Status)
	}

	key := fmt.Sprintf("collections:page:%d:size:%d:search:%s:status:%s",
		params.PageIndex, params.PageSize, params.Search, params.Status)
	cached := &CollectionPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "c.deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += fmt.Sprintf(" AND c.invoice_number ILIKE $%d", len(args))
	}
	if params.Status != "" {
		args = append(args, params.Status)
		where += fmt.Sprintf(" AND c.status = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM collections c WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count collections: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT c.id, c.billing_id, c.invoice_number, c.amount, c.balance, c.status,
		       c.collection_date, c.remarks, c.created_at, c.updated_at
		FROM collections c
		WHERE %s
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	collections := []Collection{}
	for rows.Next() {
		var col Collection
		if err := rows.Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount,
			&col.Balance, &col.Status, &col.Date, &col.Remarks, &col.CreatedAt,
			&col.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}

	page := &CollectionPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Collections:  collections,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *collectionService) UpdateRemarks(ctx context.Context, collectionID int, remarks *string, date *time.Time) (*Collection, error) {
	col := &Collection{}
	err := s.pool.QueryRow(ctx, `
		UPDATE collections
		SET remarks = COALESCE($1, remarks),
		    collection_date = COALESCE($2, collection_date),
		    updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING id, billing_id, invoice_number, amount, balance, status, collection_date,
		          remarks, created_at, updated_at`,
		remarks, date, collectionID,
	).Scan(&col.ID, &col.BillingID, &col.InvoiceNumber, &col.Amount, &col.Balance,
		&col.Status, &col.Date, &col.Remarks, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("collection %d not found", collectionID)
		}
		return nil, fmt.Errorf("update collection %d: %w", collectionID, err)
	}

	s.invalidate(ctx, "collections:*", "collection:*")
	return col, nil
}

// agingBuckets are the fixed overdue windows, in days relative to today.
var agingBuckets = []AgingBucket{
	{Label: "1-29", MinDays: 1, MaxDays: 29},
	{Label: "30-59", MinDays: 30, MaxDays: 59},
	{Label: "60-89", MinDays: 60, MaxDays: 89},
	{Label: "90-119", MinDays: 90, MaxDays: 119},
	{Label: "120+", MinDays: 120},
}

func (s *collectionService) Aging(ctx context.Context, status CollectionStatus) ([]AgingBucket, error) {
	// The report covers pending collections unless an explicit status
	// filter overrides it.
	if status == "" {
		status = CollectionPending
	}
	if status != CollectionPending && status != CollectionPaid {
		return nil, Invalidf("unknown collection status %q", status)
	}

	key := fmt.Sprintf("collections:aging:status:%s:day:%s", status, time.Now().Format("2006-01-02"))
	var cached []AgingBucket
	if s.read(ctx, key, &cached) {
		return cached, nil
	}

	report := make([]AgingBucket, len(agingBuckets))
	copy(report, agingBuckets)

	for i := range report {
		where := `c.deleted_at IS NULL AND c.status = $1
			AND CURRENT_DATE - c.collection_date::date >= $2`
		args := []any{status, report[i].MinDays}
		if report[i].MaxDays > 0 {
			args = append(args, report[i].MaxDays)
			where += " AND CURRENT_DATE - c.collection_date::date <= $3"
		}
		if err := s.pool.QueryRow(ctx,
			"SELECT count(*), COALESCE(SUM("+outstandingExpr+"), 0) FROM collections c WHERE "+where,
			args...,
		).Scan(&report[i].Count, &report[i].Outstanding); err != nil {
			return nil, fmt.Errorf("aging bucket %s: %w", report[i].Label, err)
		}
	}

	s.write(ctx, key, report)
	return report, nil
}
