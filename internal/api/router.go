package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/bestfit"
	"fieldservice-backend/internal/geocode"
	"fieldservice-backend/internal/mw"
	"fieldservice-backend/internal/scheduler"
	"fieldservice-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, sched *scheduler.Service, g geocode.Geocoder, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	analyzer := bestfit.New(cfg.BestFit.RadiusMiles)
	handler := NewHandler(s, sched, g, analyzer, webpushOptions, cfg.BestFit.RecommendDays)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), 5)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/customers", handler.PostCustomer)
		api.GET("/customers", caching, handler.GetCustomers)
		api.GET("/customers/:customer_id/next-visit", handler.GetNextVisit)

		api.POST("/rules", handler.PostRule)
		api.PUT("/rules/:id", handler.PutRule)
		api.DELETE("/rules/:id", handler.DeleteRule)
		api.POST("/rules/:id/pause", handler.PauseRule)
		api.POST("/rules/:id/resume", handler.ResumeRule)
		api.POST("/rules/:id/generate", handler.GenerateRuleVisits)

		api.GET("/visits", handler.GetVisits)
		api.POST("/visits/:id/start", handler.StartVisit)
		api.POST("/visits/:id/complete", handler.CompleteVisit)
		api.POST("/visits/:id/skip", handler.SkipVisit)
		api.POST("/visits/:id/unskip", handler.UnskipVisit)

		// Day recommendations hit the geocoder; responses are cached.
		api.GET("/recommendations", caching, handler.GetRecommendations)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
