package api

import (
	"errors"
	"net/http"

	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// multipart framing on top of the file itself
const uploadFormSlack = 1 << 20

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	images    services.ImageStore
}

func newUploadHandler(images services.ImageStore) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		images:    images,
	}
}

type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
	Message  string `json:"message"`
}

// uploadImage stores an image sent as the multipart field "image"
// @Summary Upload image
// @Tags Uploads
// @Accept mpfd
// @Produce json
// @Param image formData file true "jpg, jpeg, png or gif up to 5MB"
// @Success 200 {object} UploadResponse "Public URL of the image"
// @Failure 400 {object} ErrorResponse "Bad Request - No file"
// @Failure 413 {object} ErrorResponse "Request Entity Too Large"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type"
// @Router /api/upload [post]
func (h uploadHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requestUserID(r); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+uploadFormSlack)
		file, header, err := r.FormFile("image")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxBytesErr):
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(services.MaxImageSize))
			case errors.Is(err, http.ErrMissingFile):
				h.responder.WriteError(w, errs.NewMissingRequiredFieldError("image"))
			default:
				h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			}
			return
		}
		defer file.Close()

		if header.Size > services.MaxImageSize {
			h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(services.MaxImageSize))
			return
		}

		contentType, ok := services.ImageContentType(header.Filename)
		if !ok {
			h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(header.Filename, services.AllowedImageExtensions()))
			return
		}

		url, err := h.images.Save(r.Context(), services.NewImageName(header.Filename), contentType, file, header.Size)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("imageUrl", url).Int64("size", header.Size).Msg("image uploaded")
		h.responder.WriteJSON(w, UploadResponse{ImageURL: url, Message: "image uploaded successfully"})
	}
}
