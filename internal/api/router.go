package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/api/handlers"
	"github.com/stitts-dev/golf-prize-engine/internal/api/middleware"
)

// NewRouter builds the gin engine with probes, metrics and the tournament API.
func NewRouter(service handlers.TournamentService, health *handlers.HealthHandler, gatherer prometheus.Gatherer, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorLogger(logger))

	router.GET("/health", health.GetHealth)
	router.GET("/ready", health.GetReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	SetupRoutes(router.Group("/api/v1"), service, logger)
	return router
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, service handlers.TournamentService, logger *logrus.Logger) {
	tournamentHandler := handlers.NewTournamentHandler(service, logger)

	tournaments := group.Group("/tournaments/:id")
	{
		tournaments.GET("/leaderboard", tournamentHandler.GetLeaderboard)
		tournaments.GET("/standings", tournamentHandler.GetStandings)
		tournaments.GET("/unmatched", tournamentHandler.GetUnmatched)
		tournaments.GET("/poller", tournamentHandler.GetPollerStatus)
		tournaments.POST("/refresh", tournamentHandler.RefreshLeaderboard)
	}
}
