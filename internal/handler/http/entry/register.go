package entry

import (
	"log/slog"
	"net/http"

	"inkwell/internal/config"
	"inkwell/internal/feed"
	entryUC "inkwell/internal/usecase/entry"
)

// Register registers all blog-facing HTTP handlers with the given mux.
// It sets up the public reading routes (home, archive, permalink, feed, about)
// and the compose routes used to publish entries. Authentication is not
// applied here; the caller wraps the whole mux in auth.Authz, which passes
// the configured public endpoints through and keeps compose admin-only.
func Register(mux *http.ServeMux, svc entryUC.Service, cfg *config.SiteConfig, notifier Announcer, logger *slog.Logger) {
	site := feed.Site{
		Title:   cfg.GetTitle(),
		BaseURL: cfg.GetBaseURL(),
		Author:  cfg.GetAuthorName(),
		Email:   cfg.GetAuthorEmail(),
	}

	mux.Handle("GET    /{$}", HomeHandler{Svc: svc, Logger: logger})
	mux.Handle("GET    /archive", ArchiveHandler{svc})
	mux.Handle("GET    /index", http.RedirectHandler("/archive", http.StatusMovedPermanently))
	mux.Handle("GET    /feed", FeedHandler{Svc: svc, Site: site})
	mux.Handle("GET    /entry/{slug}", GetHandler{svc})
	mux.Handle("GET    /entry/{slug}/{$}", RedirectSlashHandler{})
	mux.Handle("GET    /about", AboutHandler{Svc: svc, Cfg: cfg, Logger: logger})

	mux.Handle("GET    /compose", ComposeFormHandler{svc})
	mux.Handle("POST   /compose", ComposeHandler{
		Svc:       svc,
		Author:    cfg.GetAuthorName(),
		Announcer: notifier,
		Logger:    logger,
	})
}
