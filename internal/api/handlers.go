package api

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"housefinder/server/config"
	"housefinder/server/internal/analytics"
	"housefinder/server/internal/view"
)

type DashboardRenderer interface {
	Render(ctx context.Context, req view.Request) *view.Dashboard
}

type ListingPool interface {
	Len() int
	Listings() []string
}

type Handler struct {
	composer   DashboardRenderer
	tracker    *analytics.Tracker
	pool       ListingPool
	defaultURL string
	logger     *logrus.Logger
}

type DashboardQuery struct {
	URL *string `form:"url"`
}

// dashboardPage is the data passed to dashboard.html
type dashboardPage struct {
	InputURL  string
	PoolSize  int
	Dashboard *view.Dashboard
}

func NewHandler(composer DashboardRenderer, tracker *analytics.Tracker, pool ListingPool, defaultURL string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		composer:   composer,
		tracker:    tracker,
		pool:       pool,
		defaultURL: defaultURL,
		logger:     logger,
	}
}

// listingURL returns the requested URL, falling back to the pre-filled
// default when the parameter is missing altogether
func (h *Handler) listingURL(c *gin.Context) string {
	var query DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.WithError(err).Error("Failed to parse dashboard query")
	}
	if query.URL == nil {
		return h.defaultURL
	}
	return *query.URL
}

func (h *Handler) GetDashboardPage(c *gin.Context) {
	url := h.listingURL(c)
	dash := h.composer.Render(c.Request.Context(), view.Request{URL: url})

	c.HTML(http.StatusOK, "dashboard.html", h.page(url, dash))
}

func (h *Handler) GetRandomPage(c *gin.Context) {
	dash := h.composer.Render(c.Request.Context(), view.Request{Random: true})

	status := http.StatusOK
	if dash.Error == view.MsgNoListings {
		status = http.StatusServiceUnavailable
	}
	c.HTML(status, "dashboard.html", h.page(dash.ListingURL, dash))
}

func (h *Handler) GetDashboard(c *gin.Context) {
	dash := h.composer.Render(c.Request.Context(), view.Request{URL: h.listingURL(c)})
	c.JSON(statusFor(dash), dash)
}

func (h *Handler) GetRandomDashboard(c *gin.Context) {
	dash := h.composer.Render(c.Request.Context(), view.Request{Random: true})
	if dash.Error == view.MsgNoListings {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no listings available"})
		return
	}
	c.JSON(statusFor(dash), dash)
}

func (h *Handler) GetOverlays(c *gin.Context) {
	c.JSON(http.StatusOK, config.Overlays())
}

func (h *Handler) GetOverlay(c *gin.Context) {
	overlay := config.GetOverlayByName(c.Param("name"))
	if overlay == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Overlay not found"})
		return
	}
	c.JSON(http.StatusOK, overlay)
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Stats())
}

func (h *Handler) GetListings(c *gin.Context) {
	listings := []string{}
	if h.pool != nil {
		listings = h.pool.Listings()
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(listings),
		"listings": listings,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"listings": h.poolSize(),
	})
}

func (h *Handler) page(url string, dash *view.Dashboard) dashboardPage {
	return dashboardPage{
		InputURL:  url,
		PoolSize:  h.poolSize(),
		Dashboard: dash,
	}
}

func (h *Handler) poolSize() int {
	if h.pool == nil {
		return 0
	}
	return h.pool.Len()
}

// statusFor maps a dashboard error onto the JSON API status code
func statusFor(dash *view.Dashboard) int {
	switch dash.Error {
	case "":
		return http.StatusOK
	case view.MsgEmptyURL:
		return http.StatusBadRequest
	case view.MsgInvalidListing:
		return http.StatusNotFound
	case view.MsgNoListings:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
