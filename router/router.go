package router

import (
	"net/http"

	"github.com/qitt/qitt-backend/handler"
	"github.com/qitt/qitt-backend/middleware"
	metricsgin "github.com/qitt/qitt-backend/pkg/metrics/gin"
	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
)

func Setup(
	auth service.AuthService,
	authHandler *handler.AuthHandler,
	searchHandler *handler.SearchHandler,
	materialHandler *handler.MaterialHandler,
	libraryHandler *handler.LibraryHandler,
) *gin.Engine {
	r := gin.Default()
	r.Use(metricsgin.PrometheusMiddleware("qitt-backend"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/auth/google/url", authHandler.GoogleAuthURL)
		api.POST("/auth/google", authHandler.GoogleAuth)
	}

	// Public reads. Optional auth keeps per-user search history working for
	// signed-in callers.
	public := api.Group("", middleware.OptionalAuth(auth))
	{
		public.GET("/search", searchHandler.Search)
		public.GET("/search/advanced", searchHandler.Advanced)
		public.GET("/search/tag/:tag", searchHandler.ByTag)
		public.GET("/search/suggestions", searchHandler.Suggestions)
		public.GET("/search/trending", searchHandler.Trending)
		public.GET("/materials", materialHandler.List)
		public.GET("/materials/:id", materialHandler.Get)
	}

	authed := api.Group("", middleware.JWTAuth(auth))
	{
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)

		authed.GET("/search/recent", searchHandler.Recent)
		authed.DELETE("/search/recent", searchHandler.ClearRecent)

		authed.POST("/materials/:id/like", materialHandler.Like)
		authed.DELETE("/materials/:id/like", materialHandler.Unlike)
		authed.POST("/materials/upload", materialHandler.Upload)
		authed.GET("/materials/upload/progress", materialHandler.Progress)

		authed.GET("/library/saved", libraryHandler.Saved)
		authed.POST("/library/saved/:id", libraryHandler.AddSaved)
		authed.DELETE("/library/saved/:id", libraryHandler.RemoveSaved)
		authed.GET("/library/uploads", libraryHandler.Uploads)
		authed.GET("/library/stats", libraryHandler.Stats)
	}

	return r
}
