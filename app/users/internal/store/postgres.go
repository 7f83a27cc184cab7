package store

import (
	"context"
	"embed"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
)

// Migrations PostgreSQL 迁移脚本
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir Migrations 中脚本所在目录
const MigrationsDir = "migrations"

const (
	sessionTable = "user_sessions"
	buyMenuTable = "user_buymenus"
)

var sessionColumns = []string{
	"user_id", "session_id",
	"ext_ip_address", "ext_client_port", "ext_server_port", "ext_tv_port",
	"int_ip_address", "int_client_port", "int_server_port", "int_tv_port",
	"current_channel_server_index", "current_channel_index", "current_room_id",
}

// sessionRow user_sessions 行
type sessionRow struct {
	UserID    int64  `db:"user_id"`
	SessionID string `db:"session_id"`

	ExtIPAddress  string `db:"ext_ip_address"`
	ExtClientPort int32  `db:"ext_client_port"`
	ExtServerPort int32  `db:"ext_server_port"`
	ExtTVPort     int32  `db:"ext_tv_port"`

	IntIPAddress  string `db:"int_ip_address"`
	IntClientPort int32  `db:"int_client_port"`
	IntServerPort int32  `db:"int_server_port"`
	IntTVPort     int32  `db:"int_tv_port"`

	CurrentChannelServerIndex int32 `db:"current_channel_server_index"`
	CurrentChannelIndex       int32 `db:"current_channel_index"`
	CurrentRoomID             int32 `db:"current_room_id"`
}

func (r *sessionRow) toModel() *model.Session {
	return &model.Session{
		SessionID: r.SessionID,
		UserID:    r.UserID,
		ExternalNet: model.NetInfo{
			IPAddress:  r.ExtIPAddress,
			ClientPort: uint16(r.ExtClientPort),
			ServerPort: uint16(r.ExtServerPort),
			TVPort:     uint16(r.ExtTVPort),
		},
		InternalNet: model.NetInfo{
			IPAddress:  r.IntIPAddress,
			ClientPort: uint16(r.IntClientPort),
			ServerPort: uint16(r.IntServerPort),
			TVPort:     uint16(r.IntTVPort),
		},
		CurrentChannelServerIndex: r.CurrentChannelServerIndex,
		CurrentChannelIndex:       r.CurrentChannelIndex,
		CurrentRoomID:             r.CurrentRoomID,
	}
}

// PostgresSessionStore user_sessions 表上的会话存储，user_id 为主键
type PostgresSessionStore struct {
	db *postgres.Client
}

func NewPostgresSessionStore(db *postgres.Client) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) InsertUnique(ctx context.Context, sess *model.Session) error {
	b := postgres.QueryBuilder.Insert(sessionTable).
		Columns(sessionColumns...).
		Values(
			sess.UserID, sess.SessionID,
			sess.ExternalNet.IPAddress, int32(sess.ExternalNet.ClientPort), int32(sess.ExternalNet.ServerPort), int32(sess.ExternalNet.TVPort),
			sess.InternalNet.IPAddress, int32(sess.InternalNet.ClientPort), int32(sess.InternalNet.ServerPort), int32(sess.InternalNet.TVPort),
			sess.CurrentChannelServerIndex, sess.CurrentChannelIndex, sess.CurrentRoomID,
		)

	if _, err := s.db.ExecBuilder(ctx, b); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) FindOne(ctx context.Context, userID int64) (*model.Session, error) {
	query, args, err := postgres.QueryBuilder.Select(sessionColumns...).
		From(sessionTable).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	row, err := postgres.QueryOne[sessionRow](s.db, ctx, query, args...)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return row.toModel(), nil
}

// UpdateMerge 单条 UPDATE 只写入提供的列
func (s *PostgresSessionStore) UpdateMerge(ctx context.Context, userID int64, u *model.SessionUpdate) (int64, error) {
	if u.IsEmpty() {
		ok, err := s.db.Exists(ctx, "SELECT EXISTS(SELECT 1 FROM "+sessionTable+" WHERE user_id = $1)", userID)
		if err != nil || !ok {
			return 0, err
		}
		return 1, nil
	}

	b := postgres.QueryBuilder.Update(sessionTable)
	b = setNetInfo(b, "ext_", u.ExternalNet)
	b = setNetInfo(b, "int_", u.InternalNet)
	if u.CurrentChannelServerIndex != nil {
		b = b.Set("current_channel_server_index", *u.CurrentChannelServerIndex)
	}
	if u.CurrentChannelIndex != nil {
		b = b.Set("current_channel_index", *u.CurrentChannelIndex)
	}
	if u.CurrentRoomID != nil {
		b = b.Set("current_room_id", *u.CurrentRoomID)
	}
	b = b.Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"user_id": userID})

	n, err := s.db.ExecBuilder(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("update session: %w", err)
	}
	return n, nil
}

func setNetInfo(b sq.UpdateBuilder, prefix string, u *model.NetInfoUpdate) sq.UpdateBuilder {
	if u == nil {
		return b
	}
	if u.IPAddress != nil {
		b = b.Set(prefix+"ip_address", *u.IPAddress)
	}
	if u.ClientPort != nil {
		b = b.Set(prefix+"client_port", int32(*u.ClientPort))
	}
	if u.ServerPort != nil {
		b = b.Set(prefix+"server_port", int32(*u.ServerPort))
	}
	if u.TVPort != nil {
		b = b.Set(prefix+"tv_port", int32(*u.TVPort))
	}
	return b
}

func (s *PostgresSessionStore) DeleteOne(ctx context.Context, userID int64) (int64, error) {
	n, err := s.db.ExecBuilder(ctx, postgres.QueryBuilder.Delete(sessionTable).Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}

func (s *PostgresSessionStore) DeleteMany(ctx context.Context) (int64, error) {
	n, err := s.db.Exec(ctx, "DELETE FROM "+sessionTable)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}

func (s *PostgresSessionStore) Count(ctx context.Context) (int64, error) {
	n, err := postgres.QueryScalar[int64](s.db, ctx, "SELECT count(*) FROM "+sessionTable)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

var buyMenuColumns = []string{
	"user_id", "pistols", "shotguns", "smgs", "rifles",
	"snipers", "machineguns", "melees", "equipment",
}

// buyMenuRow user_buymenus 行
type buyMenuRow struct {
	UserID      int64   `db:"user_id"`
	Pistols     []int32 `db:"pistols"`
	Shotguns    []int32 `db:"shotguns"`
	Smgs        []int32 `db:"smgs"`
	Rifles      []int32 `db:"rifles"`
	Snipers     []int32 `db:"snipers"`
	Machineguns []int32 `db:"machineguns"`
	Melees      []int32 `db:"melees"`
	Equipment   []int32 `db:"equipment"`
}

func (r *buyMenuRow) toModel() *model.BuyMenu {
	return &model.BuyMenu{
		UserID:      r.UserID,
		Pistols:     fromInt32s(r.Pistols),
		Shotguns:    fromInt32s(r.Shotguns),
		Smgs:        fromInt32s(r.Smgs),
		Rifles:      fromInt32s(r.Rifles),
		Snipers:     fromInt32s(r.Snipers),
		Machineguns: fromInt32s(r.Machineguns),
		Melees:      fromInt32s(r.Melees),
		Equipment:   fromInt32s(r.Equipment),
	}
}

func toInt32s(v []int) []int32 {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = int32(x)
	}
	return out
}

func fromInt32s(v []int32) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

// PostgresBuyMenuStore user_buymenus 表上的购买菜单存储
type PostgresBuyMenuStore struct {
	db *postgres.Client
}

func NewPostgresBuyMenuStore(db *postgres.Client) *PostgresBuyMenuStore {
	return &PostgresBuyMenuStore{db: db}
}

func (s *PostgresBuyMenuStore) InsertUnique(ctx context.Context, m *model.BuyMenu) error {
	b := postgres.QueryBuilder.Insert(buyMenuTable).
		Columns(buyMenuColumns...).
		Values(m.UserID,
			toInt32s(m.Pistols), toInt32s(m.Shotguns), toInt32s(m.Smgs), toInt32s(m.Rifles),
			toInt32s(m.Snipers), toInt32s(m.Machineguns), toInt32s(m.Melees), toInt32s(m.Equipment),
		)

	if _, err := s.db.ExecBuilder(ctx, b); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert buy menu: %w", err)
	}
	return nil
}

func (s *PostgresBuyMenuStore) FindOne(ctx context.Context, userID int64) (*model.BuyMenu, error) {
	query, args, err := postgres.QueryBuilder.Select(buyMenuColumns...).
		From(buyMenuTable).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	row, err := postgres.QueryOne[buyMenuRow](s.db, ctx, query, args...)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find buy menu: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresBuyMenuStore) UpdateMerge(ctx context.Context, userID int64, u *model.BuyMenuUpdate) (int64, error) {
	cols := u.Columns()
	b := postgres.QueryBuilder.Update(buyMenuTable)
	// 按列名顺序写入，保证语句稳定
	for _, col := range buyMenuColumns[1:] {
		if v, ok := cols[col]; ok {
			b = b.Set(col, toInt32s(v))
		}
	}
	b = b.Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"user_id": userID})

	n, err := s.db.ExecBuilder(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("update buy menu: %w", err)
	}
	return n, nil
}

func (s *PostgresBuyMenuStore) DeleteOne(ctx context.Context, userID int64) (int64, error) {
	n, err := s.db.ExecBuilder(ctx, postgres.QueryBuilder.Delete(buyMenuTable).Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return 0, fmt.Errorf("delete buy menu: %w", err)
	}
	return n, nil
}
