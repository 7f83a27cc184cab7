package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSession 测试新会话为零值
func TestNewSession(t *testing.T) {
	s := NewSession(7)
	assert.Equal(t, int64(7), s.UserID)
	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, NetInfo{}, s.ExternalNet)
	assert.Zero(t, s.CurrentRoomID)
	assert.NotEqual(t, s.SessionID, NewSession(7).SessionID)
}

// TestSession_JSON 测试对外字段名
func TestSession_JSON(t *testing.T) {
	b, err := json.Marshal(&Session{SessionID: "s", UserID: 1})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"sessionId", "userId", "externalNet", "internalNet",
		"currentChannelServerIndex", "currentChannelIndex", "currentRoomId"} {
		assert.Contains(t, m, k)
	}
	assert.Contains(t, m["externalNet"], "tvPort")
}

// TestSession_ApplyPartial 测试子字段级合并
func TestSession_ApplyPartial(t *testing.T) {
	s := &Session{
		SessionID:     "sid",
		UserID:        7,
		ExternalNet:   NetInfo{IPAddress: "1.2.3.4", ClientPort: 1, ServerPort: 2, TVPort: 3},
		InternalNet:   NetInfo{IPAddress: "10.0.0.1", ClientPort: 4},
		CurrentRoomID: 5,
	}

	var u SessionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"externalNet":{"clientPort":27015}}`), &u))
	s.Apply(&u)

	assert.Equal(t, NetInfo{IPAddress: "1.2.3.4", ClientPort: 27015, ServerPort: 2, TVPort: 3}, s.ExternalNet)
	assert.Equal(t, NetInfo{IPAddress: "10.0.0.1", ClientPort: 4}, s.InternalNet)
	assert.Equal(t, int32(5), s.CurrentRoomID)
	assert.Equal(t, "sid", s.SessionID)
}

// TestSessionUpdate_IsEmpty 测试空更新判断
func TestSessionUpdate_IsEmpty(t *testing.T) {
	var nilUpdate *SessionUpdate
	assert.True(t, nilUpdate.IsEmpty())
	assert.True(t, (&SessionUpdate{ExternalNet: &NetInfoUpdate{}}).IsEmpty())

	room := int32(323)
	assert.False(t, (&SessionUpdate{CurrentRoomID: &room}).IsEmpty())
}

// TestSessionUpdate_PortRange 测试端口越界无法解码
func TestSessionUpdate_PortRange(t *testing.T) {
	var u SessionUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"internalNet":{"tvPort":70000}}`), &u))
	assert.Error(t, json.Unmarshal([]byte(`{"internalNet":{"tvPort":-1}}`), &u))
}

// TestSessionUpdate_TopologyRange 测试拓扑字段超出 int32 无法解码
func TestSessionUpdate_TopologyRange(t *testing.T) {
	var u SessionUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"currentRoomId":3000000000}`), &u))
	assert.Error(t, json.Unmarshal([]byte(`{"currentChannelIndex":-2147483649}`), &u))

	require.NoError(t, json.Unmarshal([]byte(`{"currentRoomId":2147483647}`), &u))
	assert.Equal(t, int32(2147483647), *u.CurrentRoomID)
}

// TestBuyMenu_Apply 测试子菜单替换
func TestBuyMenu_Apply(t *testing.T) {
	b := DefaultBuyMenu(3)
	b.Apply(&BuyMenuUpdate{Rifles: []int{1, 2}, Melees: []int{}})

	assert.Equal(t, []int{1, 2}, b.Rifles)
	assert.Empty(t, b.Melees)
	assert.Equal(t, DefaultBuyMenu(3).Pistols, b.Pistols)
	assert.Len(t, (&BuyMenuUpdate{Rifles: []int{1}}).Columns(), 1)
}

// TestBuyMenu_Clone 测试深拷贝
func TestBuyMenu_Clone(t *testing.T) {
	b := DefaultBuyMenu(3)
	c := b.Clone()
	c.Pistols[0] = 999

	assert.Equal(t, 2, b.Pistols[0])
	assert.Equal(t, b.UserID, c.UserID)
}

// TestBuyMenu_Columns 测试整表列映射
func TestBuyMenu_Columns(t *testing.T) {
	b := DefaultBuyMenu(3)
	b.Snipers = nil

	cols := b.Columns()
	assert.Len(t, cols, 8)
	assert.Equal(t, b.Pistols, cols["pistols"])
	assert.NotNil(t, cols["snipers"])
	assert.Empty(t, cols["snipers"])
}
