package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bullseye-tracker/stats-api/internal/logic"
	"github.com/bullseye-tracker/stats-api/internal/models"
)

// decodeBody decodes and validates a JSON request body into dst. It writes
// the error response itself and returns false on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// ListPlayers handles GET /api/admin/players
// @Summary All known players with their alias relations
// @Tags Admin
// @Security ApiKey
// @Produce json
// @Success 200 {array} models.AdminPlayerInfo
// @Router /admin/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.identity.ListPlayers(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list players", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, players)
}

// GetIdentity handles GET /api/admin/players/{id}
// @Summary Identity group of a raw player id
// @Tags Admin
// @Security ApiKey
// @Produce json
// @Param id path string true "Raw player id"
// @Success 200 {object} models.IdentityInfo
// @Router /admin/players/{id} [get]
func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if id == "" {
		h.errorResponse(w, http.StatusBadRequest, "Player id required")
		return
	}

	info, err := h.identity.GetIdentity(r.Context(), id)
	if err != nil {
		h.logger.Errorw("Failed to get identity", "error", err, "player", id)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, info)
}

// LinkPlayers handles POST /api/admin/link
// @Summary Make one player id an alias of another
// @Tags Admin
// @Security ApiKey
// @Accept json
// @Param body body models.LinkRequest true "Link"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /admin/link [post]
func (h *Handler) LinkPlayers(w http.ResponseWriter, r *http.Request) {
	var req models.LinkRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	err := h.identity.Link(r.Context(), strings.TrimSpace(req.AliasID), strings.TrimSpace(req.PrimaryID))
	if err != nil {
		if isLinkRejection(err) {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("Failed to link players", "error", err, "alias", req.AliasID, "primary", req.PrimaryID)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "linked"})
}

// UnlinkPlayer handles POST /api/admin/unlink
// @Summary Remove the alias edge of a player id
// @Tags Admin
// @Security ApiKey
// @Accept json
// @Param body body models.UnlinkRequest true "Unlink"
// @Success 200 {object} map[string]string
// @Router /admin/unlink [post]
func (h *Handler) UnlinkPlayer(w http.ResponseWriter, r *http.Request) {
	var req models.UnlinkRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.identity.Unlink(r.Context(), strings.TrimSpace(req.AliasID)); err != nil {
		h.logger.Errorw("Failed to unlink player", "error", err, "alias", req.AliasID)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

func isLinkRejection(err error) bool {
	return errors.Is(err, logic.ErrSelfLink) ||
		errors.Is(err, logic.ErrPrimaryIsAlias) ||
		errors.Is(err, logic.ErrAliasHasChildren)
}
