package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lobbykit/lobbyd/lobby/registry"
	"github.com/lobbykit/lobbyd/lobby/service"
	"github.com/lobbykit/lobbyd/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.LobbyService
	ws      *websocket.Handler
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(lobbyService service.LobbyService, ws *websocket.Handler) *Server {
	s := &Server{
		service: lobbyService,
		ws:      ws,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Room management
	s.router.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	s.router.HandleFunc("/games", s.handleListGames).Methods("GET")
	s.router.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	s.router.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")

	// Room queries
	s.router.HandleFunc("/games/{id}/players", s.handleGetPlayers).Methods("GET")
	s.router.HandleFunc("/games/{id}/messages", s.handleGetMessages).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws/games/{id}", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.CreateRoom(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"game_id": info.Code})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of rooms to return

	if order == "" {
		order = "desc"
	}

	// Sort by creation time
	sort.Slice(rooms, func(i, j int) bool {
		var ti, tj time.Time = rooms[i].CreatedAt, rooms[j].CreatedAt
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(rooms)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(rooms) {
			limit = l
		}
	}
	rooms = rooms[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"games": rooms,
		"order": order,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["id"]

	if _, err := s.service.GetRoom(r.Context(), code); err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"exists": true})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["id"]

	if err := s.service.DeleteRoom(r.Context(), code); err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "game " + code + " deleted"})
}

func (s *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["id"]

	players, err := s.service.GetPlayers(r.Context(), code)
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(players),
		"players": players,
	})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["id"]

	query := r.URL.Query()
	opts := service.HistoryOptions{Order: query.Get("order")}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		opts.Limit = limit
	}

	history, err := s.service.GetMessages(r.Context(), code, opts)
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["id"]
	s.ws.ServeWS(w, r, code)
}
