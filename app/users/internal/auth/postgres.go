package auth

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/lk2023060901/xdooria-users/pkg/crypto"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

// userRow users 表行
type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// PostgresAuthenticator users 表中的账号
type PostgresAuthenticator struct {
	db       *postgres.Client
	hasher   *crypto.BcryptHasher
	logger   logger.Logger
	verifier verifier
	initErr  error
}

func NewPostgresAuthenticator(db *postgres.Client, hasher *crypto.BcryptHasher, l logger.Logger) *PostgresAuthenticator {
	if l == nil {
		l = logger.Noop()
	}
	v, err := newVerifier(hasher)
	return &PostgresAuthenticator{
		db:       db,
		hasher:   hasher,
		logger:   l.Named("auth.postgres"),
		verifier: v,
		initErr:  err,
	}
}

func (a *PostgresAuthenticator) Authenticate(ctx context.Context, username, password string) (int64, error) {
	if a.initErr != nil {
		return 0, a.initErr
	}

	query, args, err := postgres.QueryBuilder.
		Select("id", "username", "password_hash").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return 0, err
	}

	row, err := postgres.QueryOne[userRow](a.db, ctx, query, args...)
	known := err == nil
	if err != nil && !postgres.IsNoRows(err) {
		return 0, fmt.Errorf("find user %q: %w", username, err)
	}

	var hashed string
	if known {
		hashed = row.PasswordHash
	}
	if err := a.verifier.verify(password, hashed, known); err != nil {
		return 0, err
	}

	if a.hasher.NeedsRehash(row.PasswordHash) {
		a.rehash(ctx, row.ID, password)
	}
	return row.ID, nil
}

// rehash 工作因子变化后升级已存哈希，失败只记录日志
func (a *PostgresAuthenticator) rehash(ctx context.Context, userID int64, password string) {
	hashed, err := a.hasher.Hash(password)
	if err == nil {
		_, err = a.db.ExecBuilder(ctx, postgres.QueryBuilder.Update("users").
			Set("password_hash", hashed).
			Where(sq.Eq{"id": userID}))
	}
	if err != nil {
		a.logger.WarnContext(ctx, "rehash password failed", "user_id", userID, "error", err)
	}
}
