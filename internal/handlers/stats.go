package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bullseye-tracker/stats-api/internal/logic"
	"github.com/bullseye-tracker/stats-api/internal/models"
)

// pathParam returns the decoded route parameter. Ids may contain escaped
// commas or spaces.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// parseFilter reads exclude_abandons, map and score_type. It writes a 400 and
// returns false on invalid input.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (logic.Filter, bool) {
	q := r.URL.Query()

	query := models.StatsQuery{
		Map:       strings.TrimSpace(q.Get("map")),
		ScoreType: strings.ToLower(strings.TrimSpace(q.Get("score_type"))),
	}
	if raw := q.Get("exclude_abandons"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "exclude_abandons must be a boolean")
			return logic.Filter{}, false
		}
		query.ExcludeAbandons = v
	}

	if err := h.validator.Struct(&query); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid query: "+err.Error())
		return logic.Filter{}, false
	}

	return logic.Filter{
		ExcludeAbandons: query.ExcludeAbandons,
		Map:             query.Map,
		ScoreMode:       logic.ParseScoreMode(query.ScoreType),
	}, true
}

// GetGlobalStats handles GET /api/stats
// @Summary Global totals and best countries
// @Tags Stats
// @Produce json
// @Success 200 {object} models.GameStats
// @Router /stats [get]
func (h *Handler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.GetGlobalStats(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Failed to get global stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// GetTeamLeaderboard handles GET /api/leaderboard/teams
// @Summary Top teams by average score
// @Tags Stats
// @Produce json
// @Success 200 {array} models.TeamStats
// @Router /leaderboard/teams [get]
func (h *Handler) GetTeamLeaderboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	teams, err := h.stats.GetTeamLeaderboard(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Failed to get team leaderboard", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, teams)
}

// GetPlayerStats handles GET /api/players/{id}/stats
// @Summary Statistics of a player identity
// @Tags Stats
// @Produce json
// @Param id path string true "Raw or primary player id"
// @Param score_type query string false "game or personal"
// @Success 200 {object} models.PlayerStatsDetailed
// @Router /players/{id}/stats [get]
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(pathParam(r, "id"))
	if playerID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Player id required")
		return
	}
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.GetPlayerStats(r.Context(), playerID, filter)
	if err != nil {
		h.logger.Errorw("Failed to get player stats", "error", err, "player", playerID)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// GetTeamStats handles GET /api/teams/{id}/stats
// @Summary Statistics of a team
// @Tags Stats
// @Produce json
// @Param id path string true "Comma-separated member ids"
// @Success 200 {object} models.TeamStatsDetailed
// @Router /teams/{id}/stats [get]
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID := pathParam(r, "id")
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.GetTeamStats(r.Context(), teamID, filter)
	if err != nil {
		h.logger.Errorw("Failed to get team stats", "error", err, "team", teamID)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}
