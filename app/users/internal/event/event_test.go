package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

type fakeProducer struct {
	keys   []string
	values []any
	err    error
}

func (f *fakeProducer) PublishJSON(_ context.Context, key string, v any) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.values = append(f.values, v)
	return nil
}

// TestEvent_Key 测试分区键
func TestEvent_Key(t *testing.T) {
	s := model.NewSession(7)
	assert.Equal(t, "7", Created(s).Key())
	assert.Equal(t, "7", Deleted(7).Key())
	assert.Equal(t, "all", Cleared(3).Key())
}

// TestEvent_JSON 测试事件编码
func TestEvent_JSON(t *testing.T) {
	s := model.NewSession(7)
	raw, err := json.Marshal(Created(s))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "session.created", m["type"])
	assert.Equal(t, float64(7), m["userId"])
	assert.Equal(t, s.SessionID, m["sessionId"])
	assert.NotContains(t, m, "deleted")
}

// TestKafkaPublisher 测试事件写入生产者
func TestKafkaPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaPublisher(fp, logger.Noop())

	require.NoError(t, p.Publish(context.Background(), Deleted(9)))
	assert.Equal(t, []string{"9"}, fp.keys)
	assert.Equal(t, TypeDeleted, fp.values[0].(*Event).Type)

	fp.err = errors.New("broker down")
	err := p.Publish(context.Background(), Cleared(1))
	assert.ErrorContains(t, err, "session.cleared")
}

// TestNewPublisher_Disabled 测试未启用时返回空发布器
func TestNewPublisher_Disabled(t *testing.T) {
	p, closeFn, err := NewPublisher(&Config{}, logger.Noop())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, closeFn())
	assert.NoError(t, p.Publish(context.Background(), Cleared(0)))

	_, _, err = NewPublisher(&Config{Enabled: true}, logger.Noop())
	assert.Error(t, err)
}
