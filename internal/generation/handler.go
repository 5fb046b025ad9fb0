package generation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sidedish/sidedish/internal/api"
	"github.com/sidedish/sidedish/internal/drafts"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// GenerateResponse carries the new candidate together with the check that
// allowed it, so the editor can update its counters without a second call.
type GenerateResponse struct {
	Candidate *drafts.Candidate `json:"candidate"`
	Check     CheckResult       `json:"check"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	draftID := chi.URLParam(r, "draftID")

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	candidate, res, err := h.svc.Generate(r.Context(), claims.UserID, draftID, req)
	if err != nil {
		if errors.Is(err, ErrProviderNotConfigured) {
			api.HandleError(w, api.ErrNotConfigured)
			return
		}
		slog.Error("generation failed", "draft_id", draftID, "error", err)
		api.JSONErrorMessage(w, http.StatusBadGateway, "generation provider failed")
		return
	}
	if !res.CanGenerate {
		api.JSON(w, http.StatusTooManyRequests, res)
		return
	}

	api.JSON(w, http.StatusCreated, GenerateResponse{Candidate: candidate, Check: res})
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	draftID := chi.URLParam(r, "draftID")

	info, err := h.svc.UsageInfo(r.Context(), draftID, claims.UserID)
	if err != nil {
		slog.Error("getting usage info", "draft_id", draftID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, info)
}
