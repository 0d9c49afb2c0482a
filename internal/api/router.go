// Package api assembles the chatwatch HTTP server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/chatwatch/api/openapi"
	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/api/middleware"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/notify"
	"github.com/donaldgifford/chatwatch/internal/rules"
	"github.com/donaldgifford/chatwatch/internal/store"
)

// FeedWSPath is where the dashboard feed streams over a websocket.
const FeedWSPath = "/api/v1/feed/ws"

// Deps are the components served by the API. Feed and Scheduler are
// optional.
type Deps struct {
	Engine    *engine.Engine
	Rules     *rules.Manager
	Store     store.Store
	Feed      *notify.FeedSink
	Scheduler *engine.Scheduler
	Logger    *slog.Logger
	Version   string
}

// NewRouter builds the Echo server with middleware, operational endpoints
// and the Huma API registered.
func NewRouter(d Deps) (*echo.Echo, huma.API) {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(d.Store)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if d.Feed != nil {
		e.GET(FeedWSPath, echo.WrapHandler(http.HandlerFunc(d.Feed.ServeWS)))
	}

	version := d.Version
	if version == "" {
		version = "dev"
	}
	api := humaecho.New(e, huma.DefaultConfig("chatwatch", version))
	openapi.RegisterRoutes(e)

	handlers.RegisterIngestRoutes(api, handlers.NewIngestHandler(d.Engine))
	handlers.RegisterAlertsRoutes(api, handlers.NewAlertsHandler(d.Engine.Tracker(), d.Store, d.Rules))
	handlers.RegisterRulesRoutes(api, handlers.NewRulesHandler(d.Rules))
	handlers.RegisterEvaluateRoutes(api, handlers.NewEvaluateHandler(d.Engine))

	var feed handlers.FeedReader
	if d.Feed != nil {
		feed = d.Feed
	}
	handlers.RegisterFeedRoutes(api, handlers.NewFeedHandler(feed))

	var schedule handlers.ScheduleSource
	if d.Scheduler != nil {
		schedule = d.Scheduler
	}
	handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(d.Engine, schedule, d.Rules, version))

	return e, api
}
