package whispers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/api"
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

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req SendWhisperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	whisper, err := h.svc.Send(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecipientNotFound):
			api.HandleError(w, api.NewNotFoundError("recipient not found"))
		case errors.Is(err, ErrSelfWhisper):
			api.HandleError(w, api.NewBadRequestError("cannot whisper to yourself"))
		default:
			slog.Error("sending whisper", "error", err)
			api.HandleError(w, api.ErrInternalServer)
		}
		return
	}

	api.JSON(w, http.StatusCreated, whisper)
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.svc.Inbox(r.Context(), userID)
	if err != nil {
		slog.Error("listing inbox", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, list)
}

func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.svc.Outbox(r.Context(), userID)
	if err != nil {
		slog.Error("listing outbox", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, list)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	whisperID, err := uuid.Parse(chi.URLParam(r, "whisperID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid whisper ID"))
		return
	}

	whisper, err := h.svc.MarkRead(r.Context(), userID, whisperID)
	if err != nil {
		slog.Error("marking whisper read", "whisper_id", whisperID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if whisper == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	api.JSON(w, http.StatusOK, whisper)
}
