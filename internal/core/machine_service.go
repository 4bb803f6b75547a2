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

// MachineService is CRUD over the machine inventory. Serial numbers are
// globally unique among non-deleted machines.
type MachineService interface {
	Create(ctx context.Context, input MachineInput) (*Machine, error)
	Get(ctx context.Context, machineID int) (*Machine, error)
	List(ctx context.Context, params ListParams) (*MachinePage, error)
	Update(ctx context.Context, machineID int, input MachineInput) (*Machine, error)
	Delete(ctx context.Context, machineID int) error
}

type MachineInput struct {
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Description  *string `json:"description,omitempty"`
	SerialNumber string  `json:"serial_number"`
	Status       string  `json:"status"`
}

func (in *MachineInput) validate() error {
	if in.Brand == "" {
		return Invalidf("machine brand is required")
	}
	if in.Model == "" {
		return Invalidf("machine model is required")
	}
	if in.SerialNumber == "" {
		return Invalidf("serial number is required")
	}
	if in.Status == "" {
		in.Status = "available"
	}
	return nil
}

type MachinePage struct {
	PageIndex    int       `json:"page_index"`
	PageSize     int       `json:"page_size"`
	TotalRecords int       `json:"total_records"`
	TotalPages   int       `json:"total_pages"`
	Machines     []Machine `json:"machines"`
}

type machineService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewMachineService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) MachineService {
	return &machineService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "machines").Logger()},
	}
}

const machineColumns = `id, brand, model, description, serial_number, status, created_at, updated_at`

func scanMachine(row pgx.Row, m *Machine) error {
	return row.Scan(&m.ID, &m.Brand, &m.Model, &m.Description, &m.SerialNumber,
		&m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (s *machineService) Create(ctx context.Context, input MachineInput) (*Machine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM machines WHERE serial_number = $1 AND deleted_at IS NULL)`,
		input.SerialNumber,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check serial number: %w", err)
	}
	if exists {
		return nil, Conflictf("machine with serial number %q already exists", input.SerialNumber)
	}

	m := &Machine{}
	err := scanMachine(s.pool.QueryRow(ctx, `
		INSERT INTO machines (brand, model, description, serial_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+machineColumns,
		input.Brand, input.Model, input.Description, input.SerialNumber, input.Status,
	), m)
	if err != nil {
		return nil, fmt.Errorf("insert machine: %w", err)
	}

	s.invalidate(ctx, "machines:*", "machine:*")
	return m, nil
}

func (s *machineService) Get(ctx context.Context, machineID int) (*Machine, error) {
	key := fmt.Sprintf("machine:%d", machineID)
	cached := &Machine{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	m := &Machine{}
	err := scanMachine(s.pool.QueryRow(ctx,
		`SELECT `+machineColumns+` FROM machines WHERE id = $1 AND deleted_at IS NULL`,
		machineID,
	), m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("machine %d not found", machineID)
		}
		return nil, fmt.Errorf("get machine %d: %w", machineID, err)
	}

	s.write(ctx, key, m)
	return m, nil
}

func (s *machineService) List(ctx context.Context, params ListParams) (*MachinePage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("machines:page:%d:size:%d:search:%s", params.PageIndex, params.PageSize, params.Search)
	cached := &MachinePage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += " AND (brand ILIKE $1 OR model ILIKE $1 OR serial_number ILIKE $1)"
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM machines WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count machines: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM machines
		WHERE %s
		ORDER BY brand, model
		LIMIT $%d OFFSET $%d`, machineColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	machines := []Machine{}
	for rows.Next() {
		var m Machine
		if err := scanMachine(rows, &m); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}

	page := &MachinePage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Machines:     machines,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *machineService) Update(ctx context.Context, machineID int, input MachineInput) (*Machine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM machines WHERE serial_number = $1 AND id <> $2 AND deleted_at IS NULL)`,
		input.SerialNumber, machineID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check serial number: %w", err)
	}
	if exists {
		return nil, Conflictf("machine with serial number %q already exists", input.SerialNumber)
	}

	m := &Machine{}
	err := scanMachine(s.pool.QueryRow(ctx, `
		UPDATE machines
		SET brand = $1, model = $2, description = $3, serial_number = $4,
		    status = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING `+machineColumns,
		input.Brand, input.Model, input.Description, input.SerialNumber, input.Status, machineID,
	), m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("machine %d not found", machineID)
		}
		return nil, fmt.Errorf("update machine %d: %w", machineID, err)
	}

	s.invalidate(ctx, "machines:*", "machine:*")
	return m, nil
}

func (s *machineService) Delete(ctx context.Context, machineID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE machines SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		machineID,
	)
	if err != nil {
		return fmt.Errorf("delete machine %d: %w", machineID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("machine %d not found", machineID)
	}

	s.invalidate(ctx, "machines:*", "machine:*")
	return nil
}
