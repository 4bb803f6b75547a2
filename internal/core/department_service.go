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

// DepartmentService is CRUD over internal company departments, the ones
// users belong to. Not to be confused with ClientDepartmentService.
type DepartmentService interface {
	Create(ctx context.Context, input DepartmentInput) (*Department, error)
	Get(ctx context.Context, departmentID int) (*Department, error)
	List(ctx context.Context, params ListParams) (*DepartmentPage, error)
	Update(ctx context.Context, departmentID int, input DepartmentInput) (*Department, error)
	Delete(ctx context.Context, departmentID int) error
}

type DepartmentInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (in *DepartmentInput) validate() error {
	if in.Name == "" {
		return Invalidf("department name is required")
	}
	return nil
}

type DepartmentPage struct {
	PageIndex    int          `json:"page_index"`
	PageSize     int          `json:"page_size"`
	TotalRecords int          `json:"total_records"`
	TotalPages   int          `json:"total_pages"`
	Departments  []Department `json:"departments"`
}

type departmentService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewDepartmentService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) DepartmentService {
	return &departmentService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "departments").Logger()},
	}
}

const departmentColumns = `id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row, d *Department) error {
	return row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
}

func (s *departmentService) Create(ctx context.Context, input DepartmentInput) (*Department, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM departments WHERE name = $1 AND deleted_at IS NULL)`,
		input.Name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check department name: %w", err)
	}
	if exists {
		return nil, Conflictf("department %q already exists", input.Name)
	}

	d := &Department{}
	err := scanDepartment(s.pool.QueryRow(ctx, `
		INSERT INTO departments (name, description)
		VALUES ($1, $2)
		RETURNING `+departmentColumns,
		input.Name, input.Description,
	), d)
	if err != nil {
		return nil, fmt.Errorf("insert department: %w", err)
	}

	s.invalidate(ctx, "departments:*", "department:*")
	return d, nil
}

func (s *departmentService) Get(ctx context.Context, departmentID int) (*Department, error) {
	key := fmt.Sprintf("department:%d", departmentID)
	cached := &Department{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	d := &Department{}
	err := scanDepartment(s.pool.QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1 AND deleted_at IS NULL`,
		departmentID,
	), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("department %d not found", departmentID)
		}
		return nil, fmt.Errorf("get department %d: %w", departmentID, err)
	}

	s.write(ctx, key, d)
	return d, nil
}

func (s *departmentService) List(ctx context.Context, params ListParams) (*DepartmentPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("departments:page:%d:size:%d:search:%s", params.PageIndex, params.PageSize, params.Search)
	cached := &DepartmentPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += " AND name ILIKE $1"
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM departments WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count departments: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM departments
		WHERE %s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, departmentColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	departments := []Department{}
	for rows.Next() {
		var d Department
		if err := scanDepartment(rows, &d); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}

	page := &DepartmentPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Departments:  departments,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *departmentService) Update(ctx context.Context, departmentID int, input DepartmentInput) (*Department, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM departments WHERE name = $1 AND id <> $2 AND deleted_at IS NULL)`,
		input.Name, departmentID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check department name: %w", err)
	}
	if exists {
		return nil, Conflictf("department %q already exists", input.Name)
	}

	d := &Department{}
	err := scanDepartment(s.pool.QueryRow(ctx, `
		UPDATE departments
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+departmentColumns,
		input.Name, input.Description, departmentID,
	), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("department %d not found", departmentID)
		}
		return nil, fmt.Errorf("update department %d: %w", departmentID, err)
	}

	s.invalidate(ctx, "departments:*", "department:*")
	return d, nil
}

func (s *departmentService) Delete(ctx context.Context, departmentID int) error {
	var inUse bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE department_id = $1 AND deleted_at IS NULL)`,
		departmentID,
	).Scan(&inUse); err != nil {
		return fmt.Errorf("check department usage: %w", err)
	}
	if inUse {
		return Conflictf("department %d still has users assigned", departmentID)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE departments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		departmentID,
	)
	if err != nil {
		return fmt.Errorf("delete department %d: %w", departmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("department %d not found", departmentID)
	}

	s.invalidate(ctx, "departments:*", "department:*")
	return nil
}
