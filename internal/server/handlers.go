package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/provider"
	"github.com/set-night/tutorme/internal/tutor"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, completion.ErrorBody{Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req completion.Request
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.completer.Complete(r.Context(), req)
	if err != nil {
		var ve *tutor.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, completion.ErrorBody{
				Message:      ve.Error(),
				ValidOptions: ve.ValidOptions,
			})
			return
		}
		slog.Error("completion failed", "error", err, "tab_id", req.TabID)
		writeJSON(w, http.StatusInternalServerError, completion.ErrorBody{
			Message: "Error processing your request",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type modelInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Vision          bool    `json:"vision"`
	Files           bool    `json:"files"`
	PromptPrice     float64 `json:"promptPrice"`
	CompletionPrice float64 `json:"completionPrice"`
	ContextLength   int     `json:"contextLength,omitempty"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	var upstream []domain.AIModel
	if s.models != nil {
		var err error
		upstream, err = s.models.ListModels(r.Context())
		if err != nil {
			slog.Warn("list upstream models", "error", err)
		}
	}

	out := make([]modelInfo, 0, len(domain.Models))
	for _, m := range domain.Models {
		info := modelInfo{ID: m.ID, Name: m.Name, Vision: m.Capabilities.Vision, Files: m.Capabilities.Files}
		resolved := provider.ResolveModel(m.ID)
		for _, u := range upstream {
			if u.ID == m.ID || u.ID == resolved {
				info.PromptPrice = u.PromptPrice
				info.CompletionPrice = u.CompletionPrice
				info.ContextLength = u.ContextLength
				break
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) conversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("conversation request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, completion.ErrorBody{
			Message: "Error processing your request",
			Error:   err.Error(),
		})
	}
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.conversations == nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrNoDatabase.Error())
		return false
	}
	return true
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	list, err := s.conversations.List(r.Context())
	if err != nil {
		s.conversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	c, err := s.conversations.Create(r.Context())
	if err != nil {
		s.conversationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("conversationId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}
	msgs, err := s.conversations.ListMessages(r.Context(), id)
	if err != nil {
		s.conversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type addMessageRequest struct {
	ConversationID int64       `json:"conversationId"`
	Role           domain.Role `json:"role"`
	Content        string      `json:"content"`
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	var req addMessageRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.ConversationID == 0:
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	case req.Role != domain.RoleUser && req.Role != domain.RoleModel && req.Role != domain.RoleSystem:
		writeError(w, http.StatusBadRequest, "role must be user, model or system")
		return
	case strings.TrimSpace(req.Content) == "":
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := s.conversations.AddMessage(r.Context(), req.ConversationID, req.Role, req.Content)
	if err != nil {
		s.conversationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
