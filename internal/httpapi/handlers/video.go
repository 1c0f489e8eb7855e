package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gitreel/internal/httpkit"
	"gitreel/internal/pkg/errors"
)

// GetVideo renders the profile card video for the login in the URL and
// streams it back. The whole render happens within this request.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	login := chi.URLParam(r, "username")

	log := h.log.FromContext(ctx).WithLogin(login)
	log.Info("incoming video request")

	res, err := h.pipeline.Run(ctx, login)
	if err != nil {
		httpkit.WritePlainError(w, errors.GetHTTPStatus(err), errors.GetMessage(err))
		return
	}
	defer res.Cleanup()

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, res.Stream); err != nil {
		// Headers are gone, nothing to send. Usually the client hung up.
		log.Warn("video stream interrupted", "error", err.Error())
	}
}
