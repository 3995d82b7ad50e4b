// File: internal/server/types.go
package server

import (
	"context"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/service"
)

// Facade is the set of monitoring operations exposed over HTTP. It is
// satisfied by *service.Facade.
type Facade interface {
	Watch(req service.WatchRequest) schemas.Result
	StopWatching(req service.StopWatchingRequest) schemas.Result
	StopAll() schemas.Result
	ListWatchedFiles() schemas.Result
	GetRecentErrors(req service.RecentErrorsRequest) schemas.Result
	AnalyzeLog(ctx context.Context, req service.AnalyzeRequest) schemas.Result
	QuickScan(req service.QuickScanRequest) schemas.Result
	RapidDebug(ctx context.Context, req service.RapidDebugRequest) schemas.Result
}

// MessageType defines the kind of message sent over the findings socket.
type MessageType string

const (
	// MsgTypeFinding carries one finding for one watched path.
	MsgTypeFinding MessageType = "Finding"
	// MsgTypeSubscribe is sent by a client to restrict findings to one path.
	// An empty path subscribes to every file.
	MsgTypeSubscribe MessageType = "Subscribe"
	// MsgTypeSubscribed acknowledges a Subscribe.
	MsgTypeSubscribed  MessageType = "Subscribed"
	MsgTypeSystemError MessageType = "SystemError"
)

// WSMessage is the envelope for every websocket frame in both directions.
type WSMessage struct {
	Type MessageType            `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
	// Timestamp is RFC3339 in UTC.
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}
