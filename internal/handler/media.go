package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"microblog/internal/httputil"
	"microblog/internal/model"
	"microblog/internal/service"
)

const (
	// multipart overhead allowed on top of the file size limit
	multipartSlack = 1 << 20
	// parts beyond this are spooled to disk
	multipartMemory = 8 << 20
)

var errNotMultipart = model.Validation("request must be multipart/form-data")

type MediaHandler struct {
	mediaService *service.MediaService
	maxBytes     int64
	log          *zap.Logger
}

// NewMediaHandler creates the handler. maxBytes bounds the request body;
// zero leaves it unbounded.
func NewMediaHandler(mediaService *service.MediaService, maxBytes int64, log *zap.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		maxBytes:     maxBytes,
		log:          log,
	}
}

// Upload handles POST /api/medias
// Expects a multipart form with the file in the "file" field.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartSlack)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteServiceError(w, r, h.log, model.ErrMediaTooLarge)
			return
		}
		httputil.WriteServiceError(w, r, h.log, errNotMultipart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, model.ErrMediaRequired)
		return
	}
	defer file.Close()

	media, err := h.mediaService.Upload(r.Context(), model.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.MediaUploadResponse{Result: true, MediaID: media.ID})
}
