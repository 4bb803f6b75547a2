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

// ClientService is conventional CRUD over clients.
type ClientService interface {
	Create(ctx context.Context, input ClientInput) (*Client, error)
	Get(ctx context.Context, clientID int) (*Client, error)
	List(ctx context.Context, params ListParams) (*ClientPage, error)
	Update(ctx context.Context, clientID int, input ClientInput) (*Client, error)
	Delete(ctx context.Context, clientID int) error
}

type ClientInput struct {
	Name           string       `json:"name"`
	TaxID          *string      `json:"tax_id,omitempty"`
	BusinessStyle  *string      `json:"business_style,omitempty"`
	BillingAddress *string      `json:"billing_address,omitempty"`
	Status         ClientStatus `json:"status"`
}

func (in *ClientInput) validate() error {
	if in.Name == "" {
		return Invalidf("client name is required")
	}
	if in.Status == "" {
		in.Status = ClientActive
	}
	switch in.Status {
	case ClientActive, ClientInactive, ClientPending:
		return nil
	}
	return Invalidf("unknown client status %q", in.Status)
}

type ClientPage struct {
	PageIndex    int      `json:"page_index"`
	PageSize     int      `json:"page_size"`
	TotalRecords int      `json:"total_records"`
	TotalPages   int      `json:"total_pages"`
	Clients      []Client `json:"clients"`
}

type clientService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewClientService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) ClientService {
	return &clientService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "clients").Logger()},
	}
}

const clientColumns = `id, name, tax_id, business_style, billing_address, status, created_at, updated_at`

func scanClient(row pgx.Row, c *Client) error {
	return row.Scan(&c.ID, &c.Name, &c.TaxID, &c.BusinessStyle, &c.BillingAddress,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
}

func (s *clientService) Create(ctx context.Context, input ClientInput) (*Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE name = $1 AND deleted_at IS NULL)`,
		input.Name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check client name: %w", err)
	}
	if exists {
		return nil, Conflictf("client %q already exists", input.Name)
	}

	c := &Client{}
	err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (name, tax_id, business_style, billing_address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientColumns,
		input.Name, input.TaxID, input.BusinessStyle, input.BillingAddress, input.Status,
	), c)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	s.invalidate(ctx, "clients:*", "client:*")
	return c, nil
}

func (s *clientService) Get(ctx context.Context, clientID int) (*Client, error) {
	key := fmt.Sprintf("client:%d", clientID)
	cached := &Client{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	c := &Client{}
	err := scanClient(s.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND deleted_at IS NULL`,
		clientID,
	), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client %d not found", clientID)
		}
		return nil, fmt.Errorf("get client %d: %w", clientID, err)
	}

	s.write(ctx, key, c)
	return c, nil
}

func (s *clientService) List(ctx context.Context, params ListParams) (*ClientPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("clients:page:%d:size:%d:search:%s", params.PageIndex, params.PageSize, params.Search)
	cached := &ClientPage{}
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
		"SELECT count(*) FROM clients WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE %s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, clientColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	page := &ClientPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Clients:      clients,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *clientService) Update(ctx context.Context, clientID int, input ClientInput) (*Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE name = $1 AND id <> $2 AND deleted_at IS NULL)`,
		input.Name, clientID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check client name: %w", err)
	}
	if exists {
		return nil, Conflictf("client %q already exists", input.Name)
	}

	c := &Client{}
	err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $1, tax_id = $2, business_style = $3, billing_address = $4,
		    status = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING `+clientColumns,
		input.Name, input.TaxID, input.BusinessStyle, input.BillingAddress, input.Status, clientID,
	), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("client %d not found", clientID)
		}
		return nil, fmt.Errorf("update client %d: %w", clientID, err)
	}

	s.invalidate(ctx, "clients:*", "client:*")
	return c, nil
}

func (s *clientService) Delete(ctx context.Context, clientID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("delete client %d: %w", clientID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("client %d not found", clientID)
	}

	s.invalidate(ctx, "clients:*", "client:*")
	return nil
}
