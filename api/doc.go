// Package api provides the REST surface for the lobby server.
//
// Routes:
//
//	POST   /games                 create a room, returns {"game_id": code}
//	GET    /games                 list room snapshots (sort/limit params)
//	GET    /games/{id}            {"exists": true} or 404
//	DELETE /games/{id}            destroy a room, disconnecting members
//	GET    /games/{id}/players    current member list
//	GET    /games/{id}/messages   paginated chat history
//	GET    /ws/games/{id}         WebSocket upgrade for the realtime surface
//
// The server is a plain http.Handler built on gorilla/mux and holds no
// state of its own; everything lives in the injected service and the
// WebSocket handler's registry.
package api
