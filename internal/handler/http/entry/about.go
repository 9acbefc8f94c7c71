package entry

import (
	"log/slog"
	"net/http"

	"inkwell/internal/config"
	"inkwell/internal/handler/http/respond"
	"inkwell/internal/observability/logging"
	entryUC "inkwell/internal/usecase/entry"
)

type AboutHandler struct {
	Svc    entryUC.Service
	Cfg    *config.SiteConfig
	Logger *slog.Logger
}

// AboutDTO represents the site metadata rendered on the about page.
type AboutDTO struct {
	Title  string `json:"title" example:"Inkwell Notes"`
	Author struct {
		Name  string `json:"name" example:"aoki"`
		Email string `json:"email,omitempty" example:"aoki@example.com"`
	} `json:"author"`
	BaseURL    string      `json:"base_url" example:"https://blog.example.com"`
	EntryCount int64       `json:"entry_count" example:"42"`
	Comments   CommentsDTO `json:"comments"`
}

// CommentsDTO carries the external comment widget settings; comments
// themselves never touch this backend.
type CommentsDTO struct {
	Provider  string `json:"provider,omitempty" example:"disqus"`
	Shortname string `json:"shortname,omitempty" example:"inkwell-notes"`
	Enabled   bool   `json:"enabled" example:"true"`
}

// ServeHTTP サイト情報取得
// @Summary      サイト情報取得
// @Description  サイトのメタデータ（著者・エントリ数・コメントウィジェット設定）を返します
// @Tags         site
// @Produce      json
// @Success      200 {object} AboutDTO "サイト情報"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /about [get]
func (h AboutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	count, err := h.Svc.Count(ctx)
	if err != nil {
		logger.Error("failed to count entries", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := AboutDTO{
		Title:      h.Cfg.GetTitle(),
		BaseURL:    h.Cfg.GetBaseURL(),
		EntryCount: count,
		Comments: CommentsDTO{
			Provider:  h.Cfg.Site.Comments.Provider,
			Shortname: h.Cfg.Site.Comments.Shortname,
			Enabled:   h.Cfg.Site.Comments.Enabled,
		},
	}
	out.Author.Name = h.Cfg.GetAuthorName()
	out.Author.Email = h.Cfg.GetAuthorEmail()

	respond.JSON(w, http.StatusOK, out)
}
