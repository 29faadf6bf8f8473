package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"codecollab/internal/api/middleware"
	"codecollab/internal/app/service"
	"codecollab/internal/common"

	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(is *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: is}
}

func (h *InviteHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All invite routes require auth

	r.Post("/send", h.sendInvite)
	r.Post("/accept", h.acceptInvite)
	r.Post("/{inviteID}/revoke", h.revokeInvite)
	r.Get("/project/{projectID}", h.listProjectInvites)
}

func (h *InviteHandler) sendInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	invite, err := h.inviteService.CreateInvite(r.Context(), userID, req)
	if err != nil {
		// The record exists even when delivery failed; tell the caller both.
		if errors.Is(err, common.ErrInviteDelivery) && invite != nil {
			common.RespondWithJSON(w, http.StatusAccepted, map[string]any{
				"invite":  invite,
				"warning": err.Error(),
			})
			return
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, invite)
}

func (h *InviteHandler) acceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	project, err := h.inviteService.AcceptInvite(r.Context(), userID, req.Token)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

func (h *InviteHandler) revokeInvite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	inviteID := chi.URLParam(r, "inviteID")

	if err := h.inviteService.RevokeInvite(r.Context(), userID, inviteID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Invitation revoked")
}

func (h *InviteHandler) listProjectInvites(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	invites, err := h.inviteService.ListProjectInvites(r.Context(), userID, projectID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, invites)
}
