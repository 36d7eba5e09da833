package http

import (
	"net/http"
	"strconv"
	"time"

	"filing-tracker/internal/entity"
	"filing-tracker/internal/tracker/dto"
	"filing-tracker/internal/tracker/service"
	"filing-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FilingHandler handles HTTP requests for the filing lifecycle.
type FilingHandler struct {
	filingService service.FilingService
	logger        *logger.Logger
}

// NewFilingHandler creates a new FilingHandler.
func NewFilingHandler(filingService service.FilingService, logger *logger.Logger) *FilingHandler {
	return &FilingHandler{filingService: filingService, logger: logger}
}

// RegisterRoutes registers the filing routes to the Echo group.
func (h *FilingHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/filings", h.SaveFiling)
	g.DELETE("/filings/:ticker", h.RemoveFiling)
	g.GET("/filings/next", h.GetNextFiling)
	g.POST("/filings/process", h.ProcessDueFilings)
	g.GET("/filings/lookup", h.LookupFiling)
	g.GET("/history", h.GetHistory)
}

// SaveFiling inserts or updates the active filing for a ticker.
func (h *FilingHandler) SaveFiling(c echo.Context) error {
	var req dto.SaveFilingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}
	if req.NextEarningsDate.IsZero() {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "next_earnings_date is required"})
	}

	result, err := h.filingService.SaveOrUpdateFiling(c.Request().Context(), &req)
	if err != nil {
		if err == service.ErrMissingTicker {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to save filing"})
	}

	return c.JSON(http.StatusOK, dto.SaveFilingResponse{Ticker: req.Ticker, Result: result})
}

// RemoveFiling deletes the active filing for a ticker. Deleting an absent
// ticker still returns 204.
func (h *FilingHandler) RemoveFiling(c echo.Context) error {
	if err := h.filingService.RemoveFiling(c.Request().Context(), c.Param("ticker")); err != nil {
		if err == service.ErrMissingTicker {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to remove filing"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetNextFiling returns the upcoming filing with the earliest expected
// date. An empty store yields 200 with a null body, not an error.
func (h *FilingHandler) GetNextFiling(c echo.Context) error {
	filing, err := h.filingService.GetNextFiling(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get next filing", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get next filing"})
	}
	if filing == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, mapFilingResponse(filing))
}

// ProcessDueFilings runs a due scan now and reports how many filings were
// archived. Partial failures still report the successful count.
func (h *FilingHandler) ProcessDueFilings(c echo.Context) error {
	processed, err := h.filingService.ProcessDueFilings(c.Request().Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("Due scan finished with errors", logger.ErrorField(err), logger.IntField("processed", processed))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.ProcessFilingsResponse{Processed: processed})
}

// LookupFiling runs the content retriever for a company name. Finding
// nothing is a 200 with a null body.
func (h *FilingHandler) LookupFiling(c echo.Context) error {
	company := c.QueryParam("company")
	if company == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "company query parameter is required"})
	}

	article, err := h.filingService.FindLatestFiling(c.Request().Context(), company)
	if err != nil {
		h.logger.Error("Filing lookup failed", logger.ErrorField(err), logger.StringField("company", company))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Lookup failed"})
	}
	return c.JSON(http.StatusOK, article)
}

// GetHistory returns archived filing events, newest first.
func (h *FilingHandler) GetHistory(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = parsed
	}

	entries, err := h.filingService.GetHistory(c.Request().Context(), c.QueryParam("ticker"), limit)
	if err != nil {
		h.logger.Error("Failed to get history", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get history"})
	}

	responses := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, mapHistoryResponse(&entries[i]))
	}
	return c.JSON(http.StatusOK, responses)
}

func mapFilingResponse(filing *entity.Filing) dto.FilingResponse {
	return dto.FilingResponse{
		Ticker:           filing.Ticker,
		CompanyName:      filing.CompanyName,
		NextEarningsDate: filing.NextEarningsDate,
		PendingFiling:    filing.PendingFiling,
		LastChecked:      filing.LastChecked,
		FilingSource:     filing.FilingSource,
	}
}

func mapHistoryResponse(entry *entity.FilingHistory) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		Ticker:        entry.Ticker,
		CompanyName:   entry.CompanyName,
		EventType:     entry.EventType,
		ExpectedDate:  entry.ExpectedDate,
		FetchedFrom:   entry.FetchedFrom,
		FilingURL:     entry.FilingURL,
		FilingTitle:   entry.FilingTitle,
		FilingSummary: entry.FilingSummary,
		FilingText:    entry.FilingText,
		Notes:         entry.Notes,
		CreatedAt:     entry.CreatedAt,
	}
}
