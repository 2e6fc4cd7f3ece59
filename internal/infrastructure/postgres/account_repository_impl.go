package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"account-service/internal/domain/entity"
	"account-service/internal/domain/repository"
)

const uniqueViolation = "23505"

// AccountRepository is the pgx-backed credential store. The password
// hash column is only selected by the WithPassword reads, and every
// mutation is a single UPDATE scoped to its field group.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const baseColumns = `
	id, email, display_name, oauth_providers, profile_image_url, profile_image_object_id,
	status, status_changed_at, status_changed_by,
	email_verified, verification_token,
	reset_code_hash, reset_code_expires_at,
	failed_login_count, locked_until,
	last_login_at, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	providers, err := json.Marshal(a.OAuthProviders)
	if err != nil {
		return err
	}
	var imgURL, imgObj *string
	if a.ProfileImage != nil {
		imgURL, imgObj = &a.ProfileImage.URL, &a.ProfileImage.ObjectID
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, display_name, password_hash, oauth_providers,
			profile_image_url, profile_image_object_id, status, verification_token)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id, status_changed_at, created_at, updated_at
	`, a.Email, a.DisplayName, a.PasswordHash, providers, imgURL, imgObj, a.Status, a.VerificationToken)

	if err := row.Scan(&a.ID, &a.StatusChangedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.one(ctx, `SELECT`+baseColumns+` FROM accounts WHERE id = $1`, false, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.one(ctx, `SELECT`+baseColumns+` FROM accounts WHERE email = $1`, false, email)
}

func (r *AccountRepository) GetByIDWithPassword(ctx context.Context, id string) (*entity.Account, error) {
	return r.one(ctx, `SELECT password_hash,`+baseColumns+` FROM accounts WHERE id = $1`, true, id)
}

func (r *AccountRepository) GetByEmailWithPassword(ctx context.Context, email string) (*entity.Account, error) {
	return r.one(ctx, `SELECT password_hash,`+baseColumns+` FROM accounts WHERE email = $1`, true, email)
}

func (r *AccountRepository) GetByVerification(ctx context.Context, email, token string) (*entity.Account, error) {
	return r.one(ctx, `SELECT`+baseColumns+` FROM accounts WHERE email = $1 AND verification_token = $2`, false, email, token)
}

func (r *AccountRepository) one(ctx context.Context, query string, withPassword bool, args ...any) (*entity.Account, error) {
	a := &entity.Account{}
	var (
		passwordHash *string
		providers    []byte
		imgURL       *string
		imgObj       *string
		changedBy    *string
		verifyToken  *string
		resetHash    *string
	)

	dest := make([]any, 0, 19)
	if withPassword {
		dest = append(dest, &passwordHash)
	}
	dest = append(dest,
		&a.ID, &a.Email, &a.DisplayName, &providers, &imgURL, &imgObj,
		&a.Status, &a.StatusChangedAt, &changedBy,
		&a.EmailVerified, &verifyToken,
		&resetHash, &a.ResetCodeExpiresAt,
		&a.FailedLoginCount, &a.LockedUntil,
		&a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)

	if err := r.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if passwordHash != nil {
		a.PasswordHash = *passwordHash
	}
	if len(providers) > 0 {
		if err := json.Unmarshal(providers, &a.OAuthProviders); err != nil {
			return nil, err
		}
	}
	if imgURL != nil {
		a.ProfileImage = &entity.ProfileImage{URL: *imgURL}
		if imgObj != nil {
			a.ProfileImage.ObjectID = *imgObj
		}
	}
	if changedBy != nil {
		a.StatusChangedBy = *changedBy
	}
	if verifyToken != nil {
		a.VerificationToken = *verifyToken
	}
	if resetHash != nil {
		a.ResetCodeHash = *resetHash
	}
	return a, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status entity.Status, changedBy string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET status = $2, status_changed_at = $3,
		    status_changed_by = COALESCE(NULLIF($4, '')::uuid, status_changed_by),
		    updated_at = now()
		WHERE id = $1
	`, id, status, at, changedBy)
}

func (r *AccountRepository) UpdateLoginSecurity(ctx context.Context, id string, patch entity.LoginSecurityPatch) error {
	if patch.Status != nil {
		return r.exec(ctx, `
			UPDATE accounts
			SET failed_login_count = $2, locked_until = $3,
			    status = $4, status_changed_at = $5, updated_at = now()
			WHERE id = $1
		`, id, patch.FailedLoginCount, patch.LockedUntil, *patch.Status, patch.StatusChangedAt)
	}
	return r.exec(ctx, `
		UPDATE accounts
		SET failed_login_count = $2, locked_until = $3, updated_at = now()
		WHERE id = $1
	`, id, patch.FailedLoginCount, patch.LockedUntil)
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login_at = $2, updated_at = now() WHERE id = $1`, id, at)
}

func (r *AccountRepository) SetVerificationToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `UPDATE accounts SET verification_token = $2, updated_at = now() WHERE id = $1`, id, token)
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET email_verified = TRUE, verification_token = NULL, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *AccountRepository) SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET reset_code_hash = $2, reset_code_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, id, codeHash, expiresAt)
}

func (r *AccountRepository) ClearResetCode(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET reset_code_hash = NULL, reset_code_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *AccountRepository) AppendRefreshToken(ctx context.Context, id, token string, createdAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (account_id, token, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, token) DO NOTHING
	`, id, token, createdAt)
	return err
}

func (r *AccountRepository) RevokeRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1 AND token = $2`, id, token)
	return err
}

func (r *AccountRepository) RevokeAllRefreshTokens(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1`, id)
	return err
}

func (r *AccountRepository) ListRefreshTokens(ctx context.Context, id string) ([]entity.RefreshToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token, created_at FROM refresh_tokens
		WHERE account_id = $1
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.RefreshToken
	for rows.Next() {
		var rt entity.RefreshToken
		if err := rows.Scan(&rt.Token, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *AccountRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
