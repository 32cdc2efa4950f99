package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sketchflow/sketchflow/models"
	"github.com/sketchflow/sketchflow/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Provider, req.Code)
	if err != nil {
		log.Printf("Login failed: %v", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	resp := loginResponse{
		Id:       user.Id,
		Username: user.Username,
		Provider: user.Provider,
		Token:    token,
	}
	h.sendResponse(w, resp)
}

type chatRecord struct {
	Message string `json:"message"`
}

type chatsResponse struct {
	Messages []chatRecord `json:"messages"`
}

// HandleChats returns a room's edit history in chronological order. Each
// record's message is the chat body that was relayed, verbatim; clients
// replay them the same way they apply live messages.
func (h *Handler) HandleChats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	roomId := r.PathValue("roomId")

	edits, err := h.Service.LoadRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRoomId) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("LoadRoom failed for %s: %v", roomId, err)
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	messages := make([]chatRecord, 0, len(edits))
	for _, edit := range edits {
		messages = append(messages, chatRecord{Message: edit.Payload})
	}

	h.sendResponse(w, chatsResponse{Messages: messages})
}

type purgeRoomResponse struct {
	Success bool `json:"success"`
}

// HandlePurgeRoom enqueues deletion of a room's whole edit log.
func (h *Handler) HandlePurgeRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	roomId := r.PathValue("roomId")

	if err := h.Service.PurgeRoom(r.Context(), roomId); err != nil {
		if errors.Is(err, service.ErrInvalidRoomId) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("PurgeRoom failed for %s: %v", roomId, err)
		http.Error(w, "failed to purge room", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, purgeRoomResponse{Success: true})
}

type getUserResponse struct {
	Id        string `json:"id"`
	Username  string `json:"username"`
	Provider  string `json:"provider"`
	EditCount int    `json:"editCount"`
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		resp := getUserResponse{
			Id:        user.Id,
			Username:  user.Username,
			Provider:  user.Provider,
			EditCount: user.EditCount,
		}
		h.sendResponse(w, resp)

	case http.MethodDelete:
		if err := h.Service.DeleteUser(r.Context(), user); err != nil {
			http.Error(w, "failed to delete user", http.StatusInternalServerError)
			return
		}
		h.sendResponse(w, map[string]any{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) authenticate(r *http.Request) (models.User, error) {
	return h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
