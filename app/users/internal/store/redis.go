package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/database/redis"
)

// 记录以 hash 保存，另有一个 set 作为 userId 索引。
// 所有写操作都在单个脚本内完成。同一记录集的键共用 {name} hash tag，
// 集群模式下落在同一 slot，脚本可以同时访问记录与索引。

// KEYS[1] 记录键 KEYS[2] 索引 ARGV[1] userId ARGV[2..] field/value
var insertScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("SADD", KEYS[2], ARGV[1])
return 1
`)

// KEYS[1] 记录键 ARGV field/value
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
if #ARGV > 0 then
	redis.call("HSET", KEYS[1], unpack(ARGV))
end
return 1
`)

// KEYS[1] 记录键 KEYS[2] 索引 ARGV[1] userId
var deleteScript = redis.NewScript(`
local n = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return n
`)

// KEYS[1] 索引 ARGV[1] 记录键前缀，拼出的记录键与索引同 slot
var deleteAllScript = redis.NewScript(`
local n = 0
for _, id in ipairs(redis.call("SMEMBERS", KEYS[1])) do
	n = n + redis.call("DEL", ARGV[1] .. id)
end
redis.call("DEL", KEYS[1])
return n
`)

// hashRecords 以 userId 为键的 hash 记录集合
type hashRecords struct {
	rdb  *redis.Client
	name string
}

func (h hashRecords) tag() string {
	return "{" + h.name + "}"
}

func (h hashRecords) key(userID int64) string {
	return h.rdb.Key(h.tag(), strconv.FormatInt(userID, 10))
}

func (h hashRecords) index() string {
	return h.rdb.Key(h.tag(), "index")
}

func (h hashRecords) insert(ctx context.Context, userID int64, fields []any) (bool, error) {
	args := append([]any{userID}, fields...)
	n, err := h.rdb.RunInt64(ctx, insertScript, []string{h.key(userID), h.index()}, args...)
	return n == 1, err
}

func (h hashRecords) find(ctx context.Context, userID int64) (map[string]string, error) {
	m, err := h.rdb.HGetAll(ctx, h.key(userID))
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return m, nil
}

func (h hashRecords) update(ctx context.Context, userID int64, fields []any) (int64, error) {
	return h.rdb.RunInt64(ctx, updateScript, []string{h.key(userID)}, fields...)
}

func (h hashRecords) delete(ctx context.Context, userID int64) (int64, error) {
	return h.rdb.RunInt64(ctx, deleteScript, []string{h.key(userID), h.index()}, userID)
}

func (h hashRecords) deleteAll(ctx context.Context) (int64, error) {
	return h.rdb.RunInt64(ctx, deleteAllScript, []string{h.index()}, h.rdb.Key(h.tag())+":")
}

func (h hashRecords) count(ctx context.Context) (int64, error) {
	return h.rdb.SCard(ctx, h.index())
}

// RedisSessionStore Redis 会话存储
type RedisSessionStore struct {
	records hashRecords
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{records: hashRecords{rdb: rdb, name: "session"}}
}

func (s *RedisSessionStore) InsertUnique(ctx context.Context, sess *model.Session) error {
	fields := []any{
		"session_id", sess.SessionID,
		"user_id", sess.UserID,
		"current_channel_server_index", sess.CurrentChannelServerIndex,
		"current_channel_index", sess.CurrentChannelIndex,
		"current_room_id", sess.CurrentRoomID,
	}
	fields = appendNetInfo(fields, "ext_", sess.ExternalNet)
	fields = appendNetInfo(fields, "int_", sess.InternalNet)

	ok, err := s.records.insert(ctx, sess.UserID, fields)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func appendNetInfo(fields []any, prefix string, n model.NetInfo) []any {
	return append(fields,
		prefix+"ip_address", n.IPAddress,
		prefix+"client_port", n.ClientPort,
		prefix+"server_port", n.ServerPort,
		prefix+"tv_port", n.TVPort,
	)
}

func (s *RedisSessionStore) FindOne(ctx context.Context, userID int64) (*model.Session, error) {
	m, err := s.records.find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	f := fieldReader{m: m}
	sess := &model.Session{
		SessionID:                 m["session_id"],
		UserID:                    f.int64("user_id"),
		ExternalNet:               f.netInfo("ext_"),
		InternalNet:               f.netInfo("int_"),
		CurrentChannelServerIndex: f.int32("current_channel_server_index"),
		CurrentChannelIndex:       f.int32("current_channel_index"),
		CurrentRoomID:             f.int32("current_room_id"),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, f.err)
	}
	return sess, nil
}

func (s *RedisSessionStore) UpdateMerge(ctx context.Context, userID int64, u *model.SessionUpdate) (int64, error) {
	var fields []any
	if u != nil {
		fields = appendNetInfoUpdate(fields, "ext_", u.ExternalNet)
		fields = appendNetInfoUpdate(fields, "int_", u.InternalNet)
		if u.CurrentChannelServerIndex != nil {
			fields = append(fields, "current_channel_server_index", *u.CurrentChannelServerIndex)
		}
		if u.CurrentChannelIndex != nil {
			fields = append(fields, "current_channel_index", *u.CurrentChannelIndex)
		}
		if u.CurrentRoomID != nil {
			fields = append(fields, "current_room_id", *u.CurrentRoomID)
		}
	}

	n, err := s.records.update(ctx, userID, fields)
	if err != nil {
		return 0, fmt.Errorf("update session: %w", err)
	}
	return n, nil
}

func appendNetInfoUpdate(fields []any, prefix string, u *model.NetInfoUpdate) []any {
	if u == nil {
		return fields
	}
	if u.IPAddress != nil {
		fields = append(fields, prefix+"ip_address", *u.IPAddress)
	}
	if u.ClientPort != nil {
		fields = append(fields, prefix+"client_port", *u.ClientPort)
	}
	if u.ServerPort != nil {
		fields = append(fields, prefix+"server_port", *u.ServerPort)
	}
	if u.TVPort != nil {
		fields = append(fields, prefix+"tv_port", *u.TVPort)
	}
	return fields
}

func (s *RedisSessionStore) DeleteOne(ctx context.Context, userID int64) (int64, error) {
	n, err := s.records.delete(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}

func (s *RedisSessionStore) DeleteMany(ctx context.Context) (int64, error) {
	n, err := s.records.deleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}

func (s *RedisSessionStore) Count(ctx context.Context) (int64, error) {
	n, err := s.records.count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// RedisBuyMenuStore Redis 购买菜单存储，子菜单以 JSON 数组保存
type RedisBuyMenuStore struct {
	records hashRecords
}

func NewRedisBuyMenuStore(rdb *redis.Client) *RedisBuyMenuStore {
	return &RedisBuyMenuStore{records: hashRecords{rdb: rdb, name: "buymenu"}}
}

func (s *RedisBuyMenuStore) InsertUnique(ctx context.Context, b *model.BuyMenu) error {
	fields, err := encodeMenus(b.Columns())
	if err != nil {
		return err
	}

	ok, err := s.records.insert(ctx, b.UserID, fields)
	if err != nil {
		return fmt.Errorf("insert buy menu: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisBuyMenuStore) FindOne(ctx context.Context, userID int64) (*model.BuyMenu, error) {
	m, err := s.records.find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find buy menu: %w", err)
	}

	var u model.BuyMenuUpdate
	for _, dst := range []struct {
		name string
		v    *[]int
	}{
		{"pistols", &u.Pistols}, {"shotguns", &u.Shotguns}, {"smgs", &u.Smgs}, {"rifles", &u.Rifles},
		{"snipers", &u.Snipers}, {"machineguns", &u.Machineguns}, {"melees", &u.Melees}, {"equipment", &u.Equipment},
	} {
		*dst.v = []int{}
		if raw, ok := m[dst.name]; ok {
			if err := json.Unmarshal([]byte(raw), dst.v); err != nil {
				return nil, fmt.Errorf("decode buy menu %d %s: %w", userID, dst.name, err)
			}
		}
	}

	b := &model.BuyMenu{UserID: userID}
	b.Apply(&u)
	return b, nil
}

func (s *RedisBuyMenuStore) UpdateMerge(ctx context.Context, userID int64, u *model.BuyMenuUpdate) (int64, error) {
	fields, err := encodeMenus(u.Columns())
	if err != nil {
		return 0, err
	}

	n, err := s.records.update(ctx, userID, fields)
	if err != nil {
		return 0, fmt.Errorf("update buy menu: %w", err)
	}
	return n, nil
}

func (s *RedisBuyMenuStore) DeleteOne(ctx context.Context, userID int64) (int64, error) {
	n, err := s.records.delete(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete buy menu: %w", err)
	}
	return n, nil
}

func encodeMenus(cols map[string][]int) ([]any, error) {
	fields := make([]any, 0, len(cols)*2)
	for name, items := range cols {
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode buy menu %s: %w", name, err)
		}
		fields = append(fields, name, string(raw))
	}
	return fields, nil
}

// fieldReader 解析 hash 字段，记录第一个错误
type fieldReader struct {
	m   map[string]string
	err error
}

func (f *fieldReader) int64(name string) int64 {
	raw, ok := f.m[name]
	if !ok || f.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
	}
	return v
}

func (f *fieldReader) int32(name string) int32 {
	raw, ok := f.m[name]
	if !ok || f.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
	}
	return int32(v)
}

func (f *fieldReader) port(name string) uint16 {
	raw, ok := f.m[name]
	if !ok || f.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
	}
	return uint16(v)
}

func (f *fieldReader) netInfo(prefix string) model.NetInfo {
	return model.NetInfo{
		IPAddress:  f.m[prefix+"ip_address"],
		ClientPort: f.port(prefix + "client_port"),
		ServerPort: f.port(prefix + "server_port"),
		TVPort:     f.port(prefix + "tv_port"),
	}
}
