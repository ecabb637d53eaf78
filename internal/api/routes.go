package api

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	// Listing descriptions come from the listing site as HTML
	"safeHTML": func(s *string) template.HTML {
		if s == nil {
			return ""
		}
		return template.HTML(*s)
	},
	"percent": func(f float64) string {
		return strconv.FormatFloat(f*100, 'f', 1, 64)
	},
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func SetupRoutes(router *gin.Engine, handler *Handler, allowedOrigins []string) error {
	tmpl, err := LoadTemplates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/", handler.GetDashboardPage)
	router.GET("/random", handler.GetRandomPage)
	router.GET("/healthz", handler.GetHealth)

	api := router.Group("/api")
	{
		api.GET("/dashboard", handler.GetDashboard)
		api.GET("/random", handler.GetRandomDashboard)
		api.GET("/listings", handler.GetListings)
		api.GET("/overlays", handler.GetOverlays)
		api.GET("/overlays/:name", handler.GetOverlay)
		api.GET("/analytics", handler.GetAnalytics)
	}
	return nil
}
