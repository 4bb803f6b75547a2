package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"billing-backend/internal/cache"
)

// Recognized user roles. Owner and manager are the administrative tiers.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// UserService manages accounts and verifies credentials. Password hashes
// never leave this package.
type UserService interface {
	Create(ctx context.Context, input UserInput) (*User, error)
	Get(ctx context.Context, userID int) (*User, error)
	List(ctx context.Context, params ListParams) (*UserPage, error)
	Delete(ctx context.Context, userID int) error
	// Authenticate verifies the username/password pair and returns the
	// matching user, or an unauthorized error.
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

type UserInput struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DepartmentID int    `json:"department_id"`
}

func (in *UserInput) validate() error {
	if in.FirstName == "" || in.LastName == "" {
		return Invalidf("first and last name are required")
	}
	if in.Username == "" {
		return Invalidf("username is required")
	}
	if len(in.Password) < 8 {
		return Invalidf("password must be at least 8 characters")
	}
	if in.DepartmentID == 0 {
		return Invalidf("department_id is required")
	}
	switch in.Role {
	case RoleOwner, RoleManager, RoleStaff:
		return nil
	}
	return Invalidf("unknown role %q", in.Role)
}

type UserPage struct {
	PageIndex    int    `json:"page_index"`
	PageSize     int    `json:"page_size"`
	TotalRecords int    `json:"total_records"`
	TotalPages   int    `json:"total_pages"`
	Users        []User `json:"users"`
}

type userService struct {
	pool *pgxpool.Pool
	cacheAside
}

func NewUserService(pool *pgxpool.Pool, c cache.Cache, log zerolog.Logger) UserService {
	return &userService{
		pool:       pool,
		cacheAside: cacheAside{cache: c, log: log.With().Str("component", "users").Logger()},
	}
}

const userColumns = `id, first_name, last_name, role, username, department_id, created_at`

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.Username,
		&u.DepartmentID, &u.CreatedAt)
}

func (s *userService) Create(ctx context.Context, input UserInput) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var deptExists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1 AND deleted_at IS NULL)`,
		input.DepartmentID,
	).Scan(&deptExists); err != nil {
		return nil, fmt.Errorf("check department: %w", err)
	}
	if !deptExists {
		return nil, NotFoundf("department %d not found", input.DepartmentID)
	}

	var taken bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND deleted_at IS NULL)`,
		input.Username,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, Conflictf("username %q is taken", input.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{}
	err = scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, role, username, password_hash, department_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		input.FirstName, input.LastName, input.Role, input.Username, string(hash), input.DepartmentID,
	), u)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.invalidate(ctx, "users:*", "user:*")
	return u, nil
}

func (s *userService) Get(ctx context.Context, userID int) (*User, error) {
	key := fmt.Sprintf("user:%d", userID)
	cached := &User{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	u := &User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`,
		userID,
	), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("user %d not found", userID)
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	s.write(ctx, key, u)
	return u, nil
}

func (s *userService) List(ctx context.Context, params ListParams) (*UserPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("users:page:%d:size:%d:search:%s", params.PageIndex, params.PageSize, params.Search)
	cached := &UserPage{}
	if s.read(ctx, key, cached) {
		return cached, nil
	}

	where := "deleted_at IS NULL"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += " AND (username ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)"
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM users WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, userColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	page := &UserPage{
		PageIndex:    params.PageIndex,
		PageSize:     params.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, params.PageSize),
		Users:        users,
	}
	s.write(ctx, key, page)
	return page, nil
}

func (s *userService) Delete(ctx context.Context, userID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("user %d not found", userID)
	}

	s.invalidate(ctx, "users:*", "user:*")
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, Unauthorizedf("invalid credentials")
	}

	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, role, username, department_id, password_hash, created_at
		FROM users
		WHERE username = $1 AND deleted_at IS NULL`,
		username,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.Username,
		&u.DepartmentID, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same error as a bad password so usernames cannot be probed.
			return nil, Unauthorizedf("invalid credentials")
		}
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, Unauthorizedf("invalid credentials")
	}

	u.PasswordHash = ""
	return u, nil
}
