package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	// Upsert создает администратора или меняет пароль существующего.
	Upsert(ctx context.Context, admin *models.Admin) error
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetByID(ctx context.Context, id int) (*models.Admin, error)
	Count(ctx context.Context) (int, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) Upsert(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, admin.Username, admin.PasswordHash).Scan(&admin.ID, &admin.CreatedAt); err != nil {
		return fmt.Errorf("failed to save admin %q: %w", admin.Username, err)
	}
	return nil
}

func (r *postgresAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`
	return r.get(ctx, query, username)
}

func (r *postgresAdminRepository) GetByID(ctx context.Context, id int) (*models.Admin, error) {
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *postgresAdminRepository) get(ctx context.Context, query string, arg interface{}) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *postgresAdminRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
