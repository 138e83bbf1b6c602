package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatbox/internal/repository"
)

// createRequest is the POST /api/messages body.
type createRequest struct {
	Text string `json:"text"`
	User string `json:"user"`
}

// CreateMessage handles POST /api/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	// リクエストボディサイズを1MBに制限
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Warn("invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.Repo.Create(r.Context(), req.Text, req.User)
	if err != nil {
		var verr *repository.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// GetMessages handles GET /api/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}
