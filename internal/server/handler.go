package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"SilverReport/internal/calculator"
	"SilverReport/internal/recorder"
	"SilverReport/internal/report"
)

// Triggerer starts a report cycle in the background. It returns false when
// the request was coalesced into a cycle already in flight.
type Triggerer interface {
	Trigger() bool
}

// History lists archived cycles.
type History interface {
	RecentRuns(limit int) ([]recorder.RunSummary, error)
}

// Handler serves the report API.
type Handler struct {
	reader     report.Reader
	trigger    Triggerer
	history    History
	assetOrder []string
}

// NewHandler creates a Handler.
func NewHandler(reader report.Reader, trigger Triggerer, history History, assetOrder []string) *Handler {
	return &Handler{reader: reader, trigger: trigger, history: history, assetOrder: assetOrder}
}

// Root is the liveness check.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Silver Report AI Service Running"})
}

// Latest returns the last published report pair.
func (h *Handler) Latest(c *gin.Context) {
	c.JSON(http.StatusOK, h.reader.Snapshot())
}

// Market returns the bars the latest pair was built from.
func (h *Handler) Market(c *gin.Context) {
	c.JSON(http.StatusOK, h.reader.Snapshot().MarketData)
}

// News returns the articles the latest pair was built from.
func (h *Handler) News(c *gin.Context) {
	c.JSON(http.StatusOK, h.reader.Snapshot().NewsData)
}

// Summary returns per asset digests of the latest market data.
func (h *Handler) Summary(c *gin.Context) {
	snap := h.reader.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"timestamp": snap.Timestamp,
		"assets":    calculator.DigestSnapshot(snap.MarketData, h.assetOrder),
	})
}

// History returns recent archived runs, newest first.
func (h *Handler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	runs, err := h.history.RecentRuns(limit)
	if err != nil {
		log.Error().Err(err).Msg("load run history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// Trigger starts a cycle and returns without waiting for it.
func (h *Handler) Trigger(c *gin.Context) {
	if h.trigger.Trigger() {
		c.JSON(http.StatusAccepted, gin.H{
			"message":  "Report generation triggered in background.",
			"accepted": true,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Report generation already in progress.",
		"accepted": false,
	})
}
