// Package auth 创建会话前的账号密码校验
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/xdooria-users/pkg/crypto"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// 认证驱动
const (
	DriverStatic   = "static"
	DriverPostgres = "postgres"
)

// Authenticator 校验账号密码，成功返回用户 ID
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// Account 静态账号，密码为 bcrypt 哈希
type Account struct {
	UserID       int64  `mapstructure:"user_id" json:"user_id" validate:"gt=0"`
	Username     string `mapstructure:"username" json:"username" validate:"required"`
	PasswordHash string `mapstructure:"password_hash" json:"password_hash" validate:"required"`
}

// Config 认证配置
type Config struct {
	// Driver static | postgres
	Driver string `mapstructure:"driver" json:"driver" validate:"oneof=static postgres"`
	// Accounts static 驱动的账号列表
	Accounts []Account `mapstructure:"accounts" json:"accounts" validate:"dive"`
	// BcryptCost 哈希工作因子，用于未知账号的等时比较与旧哈希升级
	BcryptCost int `mapstructure:"bcrypt_cost" json:"bcrypt_cost"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Driver:     DriverStatic,
		BcryptCost: 10,
	}
}

// New 按驱动创建认证器
func New(cfg *Config, pg *postgres.Client, l logger.Logger) (Authenticator, error) {
	hasher := crypto.NewBcryptHasher(crypto.WithCost(cfg.BcryptCost))

	switch cfg.Driver {
	case DriverStatic, "":
		return NewStaticAuthenticator(cfg.Accounts, hasher)
	case DriverPostgres:
		if pg == nil {
			return nil, fmt.Errorf("auth: driver %q requires a postgres client", cfg.Driver)
		}
		return NewPostgresAuthenticator(pg, hasher, l), nil
	default:
		return nil, fmt.Errorf("auth: unknown driver %q", cfg.Driver)
	}
}

// verifier 未知账号也做一次哈希比较，响应时间不暴露账号是否存在
type verifier struct {
	hasher *crypto.BcryptHasher
	dummy  string
}

func newVerifier(hasher *crypto.BcryptHasher) (verifier, error) {
	dummy, err := hasher.Hash("xdooria-users")
	if err != nil {
		return verifier{}, err
	}
	return verifier{hasher: hasher, dummy: dummy}, nil
}

func (v verifier) verify(password, hashed string, known bool) error {
	if !known {
		_ = v.hasher.Verify(password, v.dummy)
		return ErrInvalidCredentials
	}
	if err := v.hasher.Verify(password, hashed); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// StaticAuthenticator 配置文件中的账号
type StaticAuthenticator struct {
	verifier
	accounts map[string]Account
}

func NewStaticAuthenticator(accounts []Account, hasher *crypto.BcryptHasher) (*StaticAuthenticator, error) {
	v, err := newVerifier(hasher)
	if err != nil {
		return nil, err
	}

	a := &StaticAuthenticator{verifier: v, accounts: make(map[string]Account, len(accounts))}
	for _, acc := range accounts {
		if _, ok := a.accounts[acc.Username]; ok {
			return nil, fmt.Errorf("auth: duplicate account %q", acc.Username)
		}
		a.accounts[acc.Username] = acc
	}
	return a, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) (int64, error) {
	acc, ok := a.accounts[username]
	if err := a.verify(password, acc.PasswordHash, ok); err != nil {
		return 0, err
	}
	return acc.UserID, nil
}
