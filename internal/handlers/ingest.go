package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/bullseye-tracker/stats-api/internal/logic"
)

// SubmitGame handles POST /api/submit-game
// @Summary Submit a finished or abandoned game
// @Description Stores the raw Bullseye payload and records the players it names
// @Tags Ingestion
// @Accept json
// @Produce json
// @Security ApiKey
// @Success 200 {object} map[string]interface{} "Stored"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Too Large"
// @Router /submit-game [post]
func (h *Handler) SubmitGame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	id, err := h.ingest.SubmitGame(r.Context(), body)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidPayload) {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("Failed to store game", "error", err, "bodyLength", len(body))
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"id":     id,
	})
}
