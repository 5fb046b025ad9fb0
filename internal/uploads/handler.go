package uploads

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/api"
	"github.com/sidedish/sidedish/internal/storage"
)

const maxUploadBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Handler accepts multipart image uploads for covers and avatars. The store
// is optional; without blob configuration uploads return 503.
type Handler struct {
	store     storage.ObjectStore
	publicURL string
}

func NewHandler(store storage.ObjectStore, publicURL string) *Handler {
	return &Handler{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

type uploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := api.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	if h.store == nil {
		api.HandleError(w, api.ErrNotConfigured)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("image file is required"))
		return
	}
	defer file.Close()

	// Sniff the real content type; the client's header is not trusted.
	var sniff [512]byte
	n, err := io.ReadFull(file, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	contentType := http.DetectContentType(sniff[:n])

	ext, ok := allowedImageTypes[contentType]
	if !ok {
		api.HandleError(w, api.NewBadRequestError(fmt.Sprintf("unsupported image type %s", contentType)))
		return
	}

	key := path.Join("images", claims.UserID, uuid.NewString()+ext)
	body := io.MultiReader(bytes.NewReader(sniff[:n]), file)

	size, err := h.store.Save(r.Context(), key, contentType, body)
	if err != nil {
		slog.Error("saving upload", "key", key, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, uploadResponse{
		URL:         h.publicURL + "/" + key,
		Key:         key,
		SizeBytes:   size,
		ContentType: contentType,
	})
}
