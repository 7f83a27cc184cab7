package model

import "github.com/google/uuid"

// NetInfo 一组网络端点
type NetInfo struct {
	IPAddress  string `json:"ipAddress"`
	ClientPort uint16 `json:"clientPort"`
	ServerPort uint16 `json:"serverPort"`
	TVPort     uint16 `json:"tvPort"`
}

// Session 用户在线会话
type Session struct {
	SessionID   string  `json:"sessionId"`
	UserID      int64   `json:"userId"`
	ExternalNet NetInfo `json:"externalNet"`
	InternalNet NetInfo `json:"internalNet"`

	CurrentChannelServerIndex int32 `json:"currentChannelServerIndex"`
	CurrentChannelIndex       int32 `json:"currentChannelIndex"`
	CurrentRoomID             int32 `json:"currentRoomId"`
}

// NewSession 创建零值会话，SessionID 随机生成
func NewSession(userID int64) *Session {
	return &Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
	}
}

// NetInfoUpdate NetInfo 的稀疏更新，nil 表示未提供
type NetInfoUpdate struct {
	IPAddress  *string `json:"ipAddress"`
	ClientPort *uint16 `json:"clientPort"`
	ServerPort *uint16 `json:"serverPort"`
	TVPort     *uint16 `json:"tvPort"`
}

// IsEmpty 没有任何字段
func (u *NetInfoUpdate) IsEmpty() bool {
	return u == nil || (u.IPAddress == nil && u.ClientPort == nil && u.ServerPort == nil && u.TVPort == nil)
}

// SessionUpdate Session 的稀疏更新，sessionId 与 userId 不可更新
type SessionUpdate struct {
	ExternalNet *NetInfoUpdate `json:"externalNet"`
	InternalNet *NetInfoUpdate `json:"internalNet"`

	CurrentChannelServerIndex *int32 `json:"currentChannelServerIndex"`
	CurrentChannelIndex       *int32 `json:"currentChannelIndex"`
	CurrentRoomID             *int32 `json:"currentRoomId"`
}

// IsEmpty 没有任何字段
func (u *SessionUpdate) IsEmpty() bool {
	return u == nil ||
		(u.ExternalNet.IsEmpty() && u.InternalNet.IsEmpty() &&
			u.CurrentChannelServerIndex == nil && u.CurrentChannelIndex == nil && u.CurrentRoomID == nil)
}

// Apply 合并更新到 NetInfo
func (n *NetInfo) Apply(u *NetInfoUpdate) {
	if u == nil {
		return
	}
	if u.IPAddress != nil {
		n.IPAddress = *u.IPAddress
	}
	if u.ClientPort != nil {
		n.ClientPort = *u.ClientPort
	}
	if u.ServerPort != nil {
		n.ServerPort = *u.ServerPort
	}
	if u.TVPort != nil {
		n.TVPort = *u.TVPort
	}
}

// Apply 合并更新到 Session
func (s *Session) Apply(u *SessionUpdate) {
	if u == nil {
		return
	}
	s.ExternalNet.Apply(u.ExternalNet)
	s.InternalNet.Apply(u.InternalNet)
	if u.CurrentChannelServerIndex != nil {
		s.CurrentChannelServerIndex = *u.CurrentChannelServerIndex
	}
	if u.CurrentChannelIndex != nil {
		s.CurrentChannelIndex = *u.CurrentChannelIndex
	}
	if u.CurrentRoomID != nil {
		s.CurrentRoomID = *u.CurrentRoomID
	}
}
