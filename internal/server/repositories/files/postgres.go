package files

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/dbx"
	"github.com/dropvault/dropvault/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, user_id, original_name, storage_key, storage_url, file_size, mime_type, is_shared, share_token, created_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	var shareToken sql.NullString
	err := row.Scan(&f.ID, &f.UserID, &f.OriginalName, &f.StorageKey, &f.StorageURL,
		&f.Size, &f.MimeType, &f.IsShared, &shareToken, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.ShareToken = shareToken.String
	return f, nil
}

// Create inserts a new file record and fills in the generated id and timestamp.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (user_id, original_name, storage_key, storage_url, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.OriginalName, file.StorageKey, file.StorageURL, file.Size, file.MimeType).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return file, nil
}

// ListByOwner returns all files belonging to userID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE id = $1
		`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, wrapDBErr(err)
	}
	return f, nil
}

// SetShare marks the file shared and records its live token in one atomic
// update. Writing a new token supersedes any previous one. Exactly one row
// must be affected; zero means the file is gone.
func (r *PostgresRepository) SetShare(ctx context.Context, fileID, token string) error {
	query := `UPDATE files SET is_shared = TRUE, share_token = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, token, fileID)
	if err != nil {
		return wrapDBErr(err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// ClearShare revokes sharing: is_shared off, token gone, atomically.
func (r *PostgresRepository) ClearShare(ctx context.Context, fileID string) error {
	query := `UPDATE files SET is_shared = FALSE, share_token = NULL WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return wrapDBErr(err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// GetShared returns the record only when it is currently shared under exactly
// the supplied token. A structurally valid but superseded token matches no row.
func (r *PostgresRepository) GetShared(ctx context.Context, fileID, token string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE id = $1 AND is_shared = TRUE AND share_token = $2
		`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, wrapDBErr(err)
	}
	return f, nil
}

func wrapDBErr(err error) error {
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	return fmt.Errorf("db error: %w", err)
}
