package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{ readOnly bool }

// NewHandler: readOnly reports that no signer is configured and writes will fail.
func NewHandler(readOnly bool) *Handler { return &Handler{readOnly: readOnly} }

func (h *Handler) Health(c echo.Context) error {
	mode := "signing"
	if h.readOnly {
		mode = "read-only"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"mode":   mode,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}
