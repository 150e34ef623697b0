// Package service provides the business logic layer for the lobby server.
//
// The service layer sits between the transport layer (HTTP/MCP) and the
// room registry, exposing room lifecycle and read-side queries as
// snapshot values that are safe to serialize. The realtime WebSocket
// transport bypasses this layer and talks to the registry directly, since
// it needs live room references rather than snapshots.
//
// Usage:
//
//	reg := registry.New()
//	svc := service.NewLobbyService(reg)
//
//	info, err := svc.CreateRoom(ctx)
//	msgs, err := svc.GetMessages(ctx, info.Code, service.HistoryOptions{Limit: 50})
package service
