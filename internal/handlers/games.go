package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bullseye-tracker/stats-api/internal/logic"
)

// ListGames handles GET /api/games
// @Summary List stored games, newest first
// @Tags Games
// @Produce json
// @Param map query string false "Map name substring"
// @Param exclude_abandons query bool false "Skip unfinished games"
// @Success 200 {array} models.GameSummary
// @Router /games [get]
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	games, err := h.stats.ListGames(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Failed to list games", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, games)
}

// DeleteGame handles DELETE /api/games/{id}
// @Summary Delete a stored game
// @Tags Games
// @Security ApiKey
// @Param id path int true "Game row id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /games/{id} [delete]
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid game id")
		return
	}

	if err := h.ingest.DeleteGame(r.Context(), id); err != nil {
		if errors.Is(err, logic.ErrMatchNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Game not found")
			return
		}
		h.logger.Errorw("Failed to delete game", "error", err, "id", id)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Infow("Game deleted", "id", id)
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
