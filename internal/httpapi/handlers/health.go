package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"gitreel/internal/httpkit"
)

// Health performs a health check of the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"service": "gitreel-api",
		"version": "0.1.0",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := map[string]any{
			"template": h.checkTemplate(),
		}
		health["checks"] = checks

		for _, check := range checks {
			if checkMap, ok := check.(map[string]any); ok && checkMap["status"] != "ok" {
				health["status"] = "degraded"
				h.log.FromContext(r.Context()).Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, 200, health)
}

// checkTemplate verifies the template bundle is readable.
func (h *Handler) checkTemplate() map[string]any {
	result := map[string]any{
		"status": "ok",
		"dir":    h.templateDir,
	}

	if info, err := os.Stat(h.templateDir); err != nil || !info.IsDir() {
		result["status"] = "error"
		result["error"] = "template directory is not readable"
		return result
	}
	if _, err := os.Stat(filepath.Join(h.templateDir, "template.json")); err != nil {
		result["status"] = "error"
		result["error"] = "template manifest is missing"
	}
	return result
}
