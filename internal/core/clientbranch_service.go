package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"billing-backend/internal/cache"
)

// ClientBranchService is CRUD over client branches. Branch names are
// unique within their client.
type ClientBranchService interface {
	Create(ctx context.Context, input ClientBranchInput) (*ClientBranch, error)
	Get(ctx context.Context, branchID int) (*ClientBranch, error)
	List(ctx context.Context, params ClientScopedListParams) (*ClientBranchPage, error)
	Update(ctx context.Context, branchID int, input ClientBranchInput) (*ClientBranch, error)
	Delete(ctx context.Context, branchID int) error
}

type ClientBranchInput struct {
	ClientID int          `json:"client_id"`
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	Phone    *string      `json:"phone,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Status   ClientStatus `json:"status"`
}

func (in *ClientBranchInput) validate() error {
	if in.ClientID == 0 {
		return Invalidf("client_id is required")
	}
	if in.Name == "" {
		return Invalidf("branch name is required")
	}
	if in.Address == "" {
		return Invalidf("branch address is required")
	}
	if in.Status == "" {
		in.Status = ClientActive
	}
	switch in.Status {
	case ClientActive, ClientInactive, ClientPending:
		return nil
	}
	return Invalidf("unknown status %q", in.Status)
}

type ClientBranchPage struct {
	PageIndex    int            `json:"page_index"`
	PageSize     int            `json:"page_size"`
	TotalRecords int            `json:"total_records"`
	TotalPages   int            `json:"total_pages"`
	Branches     []ClientBranch `json:"branches"`
}

type clientBranchService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewClientBranchService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) ClientBranchService {
	return &clientBranchService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "client_branches").Logger()},
	}
}

const clientBranchColumns = `id, client_id, name, address, phone, email, status, created_at, updated_at`

func scanClientBranch(row pgx.Row, b *ClientBranch) error {
	return row.Scan(&b.ID, &b.ClientID, &b.Name, &b.Address, &b.Phone, &b.Email,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
}

func (s *clientBranchService) Create(ctx context.Context, input ClientBranchInput) (*ClientBranch, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var clientExists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND deleted_at IS NULL)`,
		input.ClientID,
	).Scan(&clientExists); err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	if !clientExists {
		return nil, NotFoundf("client %d not found", input.ClientID)
	}

	var taken bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM client_branches
			WHERE client_id = $1 AND name = $2 AND deleted_at IS NULL
		)`, input.ClientID, input.Name,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check branch name: %w", err)
	}
	if taken {
		return nil, Conflictf("branch %q already exists for client %d", input.Name, input.ClientID)
	}

	b := &ClientBranch{}
	err := scanClientBranch(s.pool.QueryRow(ctx, `
		INSERT INTO client_branches (client_id, name, address, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientBranchColumns,
		input.ClientID, input.Name, input.Address, input.Phone, input.Email, input.Status,
	), b)
	if err != nil {
		return nil, fmt.Errorf("insert client branch: %w", err)
	}

	s.invalidate(ctx, "client_branches:*", "client_branch:*")
	return b, nil
}

func (s *clientBranchService) Get(ctx context.Context, branchID int) (*ClientBranch, error) {
	key := fmt.Sprintf("client_branch:%d", branchID)
	cached := &ClientBranch{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	b := &ClientBranch{}
	err := scanClientBranch(s.pool.QueryRow(ctx,
		`SELECT `+clientBranchColumns+` FROM client_branches WHERE id = $1 AND deleted_at IS NULL`,
		branchID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client branch %d not found", branchID)
		}
		return nil, fmt.Errorf("get client branch %d: %w", branchID, err)
	}

	s.write(ctx, key, b)
	return b, nil
}

func (s *clientBranchService) List(ctx context.Context, params ClientScopedListParams) (*ClientBranchPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("client_branches:page:%d:size:%d:search:%s:client:%d",
		params.PageIndex, params.PageSize, params.Search, params.ClientID)
	cached := &ClientBranchPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if params.ClientID != 0 {
		args = append(args, params.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM client_branches WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count client branches: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM client_branches
		WHERE %s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, clientBranchColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query client branches: %w", err)
	}
	defer rows.Close()

	branches := []ClientBranch{}
	for rows.Next() {
		var b ClientBranch
		if err := scanClientBranch(rows, &b); err != nil {
			return nil, fmt.Errorf("scan client branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client branches: %w", err)
	}

	page := &ClientBranchPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Branches:     branches,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *clientBranchService) Update(ctx context.Context, branchID int, input ClientBranchInput) (*ClientBranch, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var taken bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM client_branches
			WHERE client_id = $1 AND name = $2 AND id <> $3 AND deleted_at IS NULL
		)`, input.ClientID, input.Name, branchID,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check branch name: %w", err)
	}
	if taken {
		return nil, Conflictf("branch %q already exists for client %d", input.Name, input.ClientID)
	}

	b := &ClientBranch{}
	err := scanClientBranch(s.pool.QueryRow(ctx, `
		UPDATE client_branches
		SET client_id = $1, name = $2, address = $3, phone = $4, email = $5,
		    status = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING `+clientBranchColumns,
		input.ClientID, input.Name, input.Address, input.Phone, input.Email,
		input.Status, branchID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client branch %d not found", branchID)
		}
		return nil, fmt.Errorf("update client branch %d: %w", branchID, err)
	}

	s.invalidate(ctx, "client_branches:*", "client_branch:*")
	return b, nil
}

func (s *clientBranchService) Delete(ctx context.Context, branchID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE client_branches SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		branchID,
	)
	if err != nil {
		return fmt.Errorf("delete client branch %d: %w", branchID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("client branch %d not found", branchID)
	}

	s.invalidate(ctx, "client_branches:*", "client_branch:*")
	return nil
}
