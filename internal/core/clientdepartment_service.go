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

// ClientDepartmentService is CRUD over the billable units of a client.
// Department names are unique within their client.
type ClientDepartmentService interface {
	Create(ctx context.Context, input ClientDepartmentInput) (*ClientDepartment, error)
	Get(ctx context.Context, departmentID int) (*ClientDepartment, error)
	List(ctx context.Context, params ClientScopedListParams) (*ClientDepartmentPage, error)
	Update(ctx context.Context, departmentID int, input ClientDepartmentInput) (*ClientDepartment, error)
	Delete(ctx context.Context, departmentID int) error
}

type ClientDepartmentInput struct {
	ClientID int          `json:"client_id"`
	Name     string       `json:"name"`
	Address  *string      `json:"address,omitempty"`
	Phone    *string      `json:"phone,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Status   ClientStatus `json:"status"`
}

func (in *ClientDepartmentInput) validate() error {
	if in.ClientID == 0 {
		return Invalidf("client_id is required")
	}
	if in.Name == "" {
		return Invalidf("department name is required")
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

// ClientScopedListParams adds an optional owning-client filter.
type ClientScopedListParams struct {
	ListParams
	ClientID int `json:"client_id"`
}

type ClientDepartmentPage struct {
	PageIndex    int                `json:"page_index"`
	PageSize     int                `json:"page_size"`
	TotalRecords int                `json:"total_records"`
	TotalPages   int                `json:"total_pages"`
	Departments  []ClientDepartment `json:"departments"`
}

type clientDepartmentService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewClientDepartmentService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) ClientDepartmentService {
	return &clientDepartmentService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "client_departments").Logger()},
	}
}

const clientDepartmentColumns = `id, client_id, name, address, phone, email, status, created_at, updated_at`

func scanClientDepartment(row pgx.Row, d *ClientDepartment) error {
	return row.Scan(&d.ID, &d.ClientID, &d.Name, &d.Address, &d.Phone, &d.Email,
		&d.Status, &d.CreatedAt, &d.UpdatedAt)
}

func (s *clientDepartmentService) Create(ctx context.Context, input ClientDepartmentInput) (*ClientDepartment, error) {
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
			SELECT 1 FROM client_departments
			WHERE client_id = $1 AND name = $2 AND deleted_at IS NULL
		)`, input.ClientID, input.Name,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check department name: %w", err)
	}
	if taken {
		return nil, Conflictf("department %q already exists for client %d", input.Name, input.ClientID)
	}

	d := &ClientDepartment{}
	err := scanClientDepartment(s.pool.QueryRow(ctx, `
		INSERT INTO client_departments (client_id, name, address, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientDepartmentColumns,
		input.ClientID, input.Name, input.Address, input.Phone, input.Email, input.Status,
	), d)
	if err != nil {
		return nil, fmt.Errorf("insert client department: %w", err)
	}

	s.invalidate(ctx, "client_departments:*", "client_department:*")
	return d, nil
}

func (s *clientDepartmentService) Get(ctx context.Context, departmentID int) (*ClientDepartment, error) {
	key := fmt.Sprintf("client_department:%d", departmentID)
	cached := &ClientDepartment{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	d := &ClientDepartment{}
	err := scanClientDepartment(s.pool.QueryRow(ctx,
		`SELECT `+clientDepartmentColumns+` FROM client_departments WHERE id = $1 AND deleted_at IS NULL`,
		departmentID,
	), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client department %d not found", departmentID)
		}
		return nil, fmt.Errorf("get client department %d: %w", departmentID, err)
	}

	s.write(ctx, key, d)
	return d, nil
}

func (s *clientDepartmentService) List(ctx context.Context, params ClientScopedListParams) (*ClientDepartmentPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("client_departments:page:%d:size:%d:search:%s:client:%d",
		params.PageIndex, params.PageSize, params.Search, params.ClientID)
	cached := &ClientDepartmentPage{}
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
		"SELECT count(*) FROM client_departments WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count client departments: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM client_departments
		WHERE %s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, clientDepartmentColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query client departments: %w", err)
	}
	defer rows.Close()

	departments := []ClientDepartment{}
	for rows.Next() {
		var d ClientDepartment
		if err := scanClientDepartment(rows, &d); err != nil {
			return nil, fmt.Errorf("scan client department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client departments: %w", err)
	}

	page := &ClientDepartmentPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Departments:  departments,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *clientDepartmentService) Update(ctx context.Context, departmentID int, input ClientDepartmentInput) (*ClientDepartment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var taken bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM client_departments
			WHERE client_id = $1 AND name = $2 AND id <> $3 AND deleted_at IS NULL
		)`, input.ClientID, input.Name, departmentID,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check department name: %w", err)
	}
	if taken {
		return nil, Conflictf("department %q already exists for client %d", input.Name, input.ClientID)
	}

	d := &ClientDepartment{}
	err := scanClientDepartment(s.pool.QueryRow(ctx, `
		UPDATE client_departments
		SET client_id = $1, name = $2, address = $3, phone = $4, email = $5,
		    status = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING `+clientDepartmentColumns,
		input.ClientID, input.Name, input.Address, input.Phone, input.Email,
		input.Status, departmentID,
	), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client department %d not found", departmentID)
		}
		return nil, fmt.Errorf("update client department %d: %w", departmentID, err)
	}

	s.invalidate(ctx, "client_departments:*", "client_department:*")
	return d, nil
}

func (s *clientDepartmentService) Delete(ctx context.Context, departmentID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE client_departments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		departmentID,
	)
	if err != nil {
		return fmt.Errorf("delete client department %d: %w", departmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("client department %d not found", departmentID)
	}

	s.invalidate(ctx, "client_departments:*", "client_department:*")
	return nil
}
