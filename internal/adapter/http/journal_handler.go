package http

import (
	"context"
	"net/http"
	"strconv"

	"microlend/internal/domain/journal"

	"github.com/labstack/echo/v4"
)

type JournalReader interface {
	GetByRunID(ctx context.Context, runID string) (*journal.Run, error)
	ListByStatus(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error)
}

// JournalHandler exposes recorded sequence runs, mainly to find partial ones.
type JournalHandler struct{ runs JournalReader }

func NewJournalHandler(r JournalReader) *JournalHandler { return &JournalHandler{runs: r} }

func (h *JournalHandler) Get(c echo.Context) error {
	run, err := h.runs.GetByRunID(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}

func (h *JournalHandler) List(c echo.Context) error {
	status := journal.RunStatus(c.QueryParam("status"))
	switch status {
	case "":
		status = journal.RunPartial
	case journal.RunRunning, journal.RunSucceeded, journal.RunFailed, journal.RunPartial:
	default:
		return badRequest(c, "unknown run status")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.runs.ListByStatus(c.Request().Context(), status, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": status, "runs": runs})
}
