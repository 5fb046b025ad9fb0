package projects

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/api"
	"github.com/sidedish/sidedish/internal/drafts"
)

type Handler struct {
	svc      *Service
	drafts   *drafts.Store
	validate *validator.Validate
}

func NewHandler(svc *Service, draftStore *drafts.Store) *Handler {
	return &Handler{
		svc:      svc,
		drafts:   draftStore,
		validate: validator.New(),
	}
}

func listParamsFromQuery(r *http.Request) ListParams {
	params := DefaultListParams()
	if p := r.URL.Query().Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= 100 {
			params.PageSize = pageSize
		}
	}
	return params
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	list, total, err := h.svc.List(r.Context(), params)
	if err != nil {
		slog.Error("listing projects", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, list, int64(total), params.Page, params.PageSize)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid project ID"))
		return
	}

	project, err := h.svc.Get(r.Context(), id)
	if err != nil {
		slog.Error("getting project", "project_id", id, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	api.JSON(w, http.StatusOK, project)
}

// ownedProject loads the project and enforces that the caller owns it.
func (h *Handler) ownedProject(w http.ResponseWriter, r *http.Request) *Project {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return nil
	}

	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid project ID"))
		return nil
	}

	project, err := h.svc.GetUncached(r.Context(), id)
	if err != nil {
		slog.Error("fetching project for ownership check", "project_id", id, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return nil
	}
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return nil
	}

	if project.UserID.String() != claims.UserID {
		slog.Warn("ownership violation attempt",
			"project_id", id,
			"project_owner", project.UserID,
			"requester", claims.UserID,
			"path", r.URL.Path,
			"method", r.Method,
		)
		api.HandleError(w, api.ErrOwnershipViolation)
		return nil
	}
	return project
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	project := h.ownedProject(w, r)
	if project == nil {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	updated, err := h.svc.Update(r.Context(), project, &req)
	if err != nil {
		slog.Error("updating project", "project_id", project.ID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	project := h.ownedProject(w, r)
	if project == nil {
		return
	}

	if err := h.svc.Delete(r.Context(), project.ID); err != nil {
		slog.Error("deleting project", "project_id", project.ID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "project deleted")
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, true)
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, false)
}

func (h *Handler) setLike(w http.ResponseWriter, r *http.Request, liked bool) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid project ID"))
		return
	}

	project, err := h.svc.GetUncached(r.Context(), projectID)
	if err != nil {
		slog.Error("fetching project for like", "project_id", projectID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	if liked {
		err = h.svc.Like(r.Context(), projectID, userID)
	} else {
		err = h.svc.Unlike(r.Context(), projectID, userID)
	}
	if err != nil {
		slog.Error("toggling like", "project_id", projectID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "ok")
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid project ID"))
		return
	}

	params := listParamsFromQuery(r)
	list, total, err := h.svc.ListComments(r.Context(), projectID, params)
	if err != nil {
		slog.Error("listing comments", "project_id", projectID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, list, int64(total), params.Page, params.PageSize)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid project ID"))
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	project, err := h.svc.GetUncached(r.Context(), projectID)
	if err != nil {
		slog.Error("fetching project for comment", "project_id", projectID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	comment, err := h.svc.AddComment(r.Context(), projectID, userID, req.Body)
	if err != nil {
		slog.Error("creating comment", "project_id", projectID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	comment.AuthorHandle = claims.Handle

	api.JSON(w, http.StatusCreated, comment)
}

// DeleteComment allows the comment's author to remove it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid comment ID"))
		return
	}

	comment, err := h.svc.GetComment(r.Context(), commentID)
	if err != nil {
		slog.Error("fetching comment", "comment_id", commentID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if comment == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	if comment.UserID.String() != claims.UserID {
		api.HandleError(w, api.ErrOwnershipViolation)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), comment); err != nil {
		slog.Error("deleting comment", "comment_id", commentID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "comment deleted")
}

// PublishDraft turns one of the caller's drafts into a public project and
// discards the draft.
func (h *Handler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	draftID := chi.URLParam(r, "draftID")
	draft, err := h.drafts.Get(r.Context(), claims.UserID, draftID)
	if err != nil {
		slog.Error("loading draft for publish", "draft_id", draftID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if draft == nil {
		api.HandleError(w, api.NewNotFoundError("draft not found"))
		return
	}

	project, err := h.svc.PublishFromDraft(r.Context(), userID, draft)
	if err != nil {
		slog.Error("publishing draft", "draft_id", draftID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	if err := h.drafts.Delete(r.Context(), claims.UserID, draftID); err != nil {
		slog.Warn("removing published draft", "draft_id", draftID, "error", err)
	}

	api.JSON(w, http.StatusCreated, project)
}
