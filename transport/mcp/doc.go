// Package mcp exposes lobby administration over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call is translated into a REST
// request against the lobby's own HTTP API, so the MCP surface can never
// drift from what the API allows. It can be served over stdio or mounted
// at an HTTP endpoint via GetMCPServer.
//
// Tools: create_game, get_game, list_games, delete_game, game_messages.
package mcp
