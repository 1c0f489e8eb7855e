package handlers

import (
	"net/http"
	"strings"

	"gitreel/internal/httpkit"
	"gitreel/internal/pkg/errors"
)

// PostUsername accepts the frontend form, validates the username against
// the cache and the GitHub API, and echoes back the login the video URL
// should be built from. Both outcomes are a 200 with a JSON body, the
// frontend branches on which key is present.
func (h *Handler) PostUsername(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpkit.WriteJSON(w, http.StatusOK, map[string]string{
			"error": "could not read the submitted form",
		})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("githubUsername"))
	if username == "" {
		httpkit.WriteJSON(w, http.StatusOK, map[string]string{
			"error": "please enter a GitHub username",
		})
		return
	}

	profile, err := h.resolver.Resolve(r.Context(), username)
	if err != nil {
		if errors.IsRateLimited(err) {
			httpkit.WriteJSON(w, http.StatusOK, map[string]string{
				"error": errors.GetMessage(err),
			})
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]string{
			"error": "not a valid GitHub username",
		})
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]string{
		"username": profile.Login,
	})
}
