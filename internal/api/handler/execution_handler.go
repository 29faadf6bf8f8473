package handler

import (
	"encoding/json"
	"net/http"

	"codecollab/internal/api/middleware"
	"codecollab/internal/app/service"
	"codecollab/internal/common"
	"codecollab/internal/platform/judge"

	"github.com/go-chi/chi/v5"
)

type ExecutionHandler struct {
	executionService *service.ExecutionService
}

func NewExecutionHandler(es *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: es}
}

func (h *ExecutionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.listLanguages) // public discovery endpoint

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/", h.execute)
	})
}

type executeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Stdin    string `json:"stdin"`
}

func (h *ExecutionHandler) execute(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Code == "" || req.Language == "" {
		common.RespondWithError(w, http.StatusBadRequest, "code and language are required")
		return
	}

	result, err := h.executionService.Execute(r.Context(), req.Code, req.Language, req.Stdin)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ExecutionHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string][]string{
		"languages": judge.SupportedLanguages(),
	})
}
