package entry

import (
	"net/http"

	"inkwell/internal/handler/http/respond"
	entryUC "inkwell/internal/usecase/entry"
)

type ArchiveHandler struct{ Svc entryUC.Service }

// ServeHTTP アーカイブ取得
// @Summary      アーカイブ取得
// @Description  公開済みの全エントリを新しい順に取得します
// @Tags         entries
// @Produce      json
// @Success      200 {array} DTO "全エントリ一覧"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /archive [get]
func (h ArchiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.Archive(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTOs(entries))
}
