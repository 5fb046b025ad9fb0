package drafts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sidedish/sidedish/internal/api"
)

type Handler struct {
	store    *Store
	validate *validator.Validate
}

func NewHandler(store *Store) *Handler {
	return &Handler{
		store:    store,
		validate: validator.New(),
	}
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	draft, err := h.store.Save(r.Context(), claims.UserID, &req)
	if err != nil {
		slog.Error("saving draft", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, draft)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	list, err := h.store.List(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("listing drafts", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	draft, err := h.store.Get(r.Context(), claims.UserID, chi.URLParam(r, "draftID"))
	if err != nil {
		slog.Error("getting draft", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if draft == nil {
		api.HandleError(w, api.NewNotFoundError("draft not found"))
		return
	}

	api.JSON(w, http.StatusOK, draft)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.store.Delete(r.Context(), claims.UserID, chi.URLParam(r, "draftID")); err != nil {
		api.HandleError(w, api.NewNotFoundError("draft not found"))
		return
	}

	api.JSONMessage(w, http.StatusOK, "draft deleted")
}

func (h *Handler) SelectCandidate(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	draft, err := h.store.SelectCandidate(r.Context(),
		claims.UserID, chi.URLParam(r, "draftID"), chi.URLParam(r, "candidateID"))
	if err != nil {
		api.HandleError(w, api.NewNotFoundError("draft or candidate not found"))
		return
	}

	api.JSON(w, http.StatusOK, draft)
}
