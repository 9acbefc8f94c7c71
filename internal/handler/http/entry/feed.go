package entry

import (
	"net/http"
	"time"

	"inkwell/internal/feed"
	"inkwell/internal/handler/http/respond"
	entryUC "inkwell/internal/usecase/entry"
)

type FeedHandler struct {
	Svc  entryUC.Service
	Site feed.Site
}

// ServeHTTP Atomフィード取得
// @Summary      Atomフィード取得
// @Description  最新エントリのAtom 1.0フィードを返します（既定で10件）
// @Tags         feed
// @Produce      xml
// @Success      200 {string} string "Atomフィード"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /feed [get]
func (h FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.Feed(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	doc, err := feed.Build(h.Site, entries, time.Now())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
