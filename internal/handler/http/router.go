package http

import (
	"database/sql"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/requestid"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/follow"
)

// NewRouter wires the versioned API, health, and metrics endpoints onto a
// single mux, wrapped with request-id, CORS, and metrics middleware.
func NewRouter(store repository.Store, followSvc *follow.Service, db *sql.DB, version string) http.Handler {
	mux := http.NewServeMux()

	users := &UsersHandler{Store: store}
	feeds := &FeedsHandler{Follow: followSvc}
	postings := &PostingsHandler{Follow: followSvc}
	health := &HealthHandler{DB: db, Version: version}
	ready := &ReadyHandler{DB: db}
	live := &LiveHandler{}

	mux.Handle("/v1.0/canary/", live)
	mux.Handle("/v1.0/users/", users)
	mux.HandleFunc("/v1.0/feeds/follow", feeds.Follow)
	mux.HandleFunc("/v1.0/feeds/unfollow", feeds.Unfollow)
	mux.HandleFunc("/v1.0/feeds/feed/force-update", feeds.ForceUpdate)
	mux.HandleFunc("/v1.0/feeds/postings/read", postings.MarkRead)
	mux.HandleFunc("/v1.0/feeds/postings/unread", postings.MarkUnread)
	mux.HandleFunc("/v1.0/feeds/following/postings", postings.FilterPostings)

	mux.Handle("/healthz", health)
	mux.Handle("/readyz", ready)
	mux.Handle("/livez", live)
	mux.Handle("/metrics", MetricsHandler())

	var handler http.Handler = mux
	handler = MetricsMiddleware(handler)
	handler = middleware.CORS(handler)
	handler = requestid.Middleware(handler)
	return handler
}
