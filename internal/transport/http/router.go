package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"microblog/internal/handler"
	"microblog/internal/httputil"
	"microblog/internal/metrics"
	"microblog/internal/model"
	mw "microblog/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	TweetHandler  *handler.TweetHandler
	MediaHandler  *handler.MediaHandler

	// Users authenticates the api-key header.
	Users mw.UserFinder

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	// MediaRoot, when set, is served read-only under /<MediaURLPrefix>/.
	MediaRoot      string
	MediaURLPrefix string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.Metrics(cfg.Metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, model.KindNotFound.String(), "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, httputil.ErrTypeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.MediaRoot != "" {
		prefix := "/" + strings.Trim(cfg.MediaURLPrefix, "/") + "/"
		r.Method(http.MethodGet, prefix+"*", noListing(http.FileServer(http.Dir(cfg.MediaRoot))))
	}

	r.Route("/api", func(r chi.Router) {
		// Public profile reads
		r.Get("/users/{id}", cfg.UserHandler.GetProfile)
		r.Get("/users/{id}/tweets", cfg.UserHandler.ListTweets)

		r.Group(func(r chi.Router) {
			r.Use(mw.APIKeyAuth(cfg.Users, cfg.Metrics, cfg.Logger))

			r.Get("/users/me", cfg.UserHandler.Me)
			r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
			r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

			r.Post("/tweets", cfg.TweetHandler.Create)
			r.Get("/tweets", cfg.TweetHandler.Feed)
			r.Delete("/tweets/{id}", cfg.TweetHandler.Delete)
			r.Post("/tweets/{id}/likes", cfg.TweetHandler.Like)
			r.Delete("/tweets/{id}/likes", cfg.TweetHandler.Unlike)

			r.Post("/medias", cfg.MediaHandler.Upload)
		})
	})

	return r
}

// noListing hides directory indexes of the media root.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
