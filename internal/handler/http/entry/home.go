package entry

import (
	"log/slog"
	"net/http"

	"inkwell/internal/handler/http/respond"
	"inkwell/internal/observability/logging"
	entryUC "inkwell/internal/usecase/entry"
)

type HomeHandler struct {
	Svc    entryUC.Service
	Logger *slog.Logger
}

// ServeHTTP ホームページ
// @Summary      ホームページ
// @Description  最新のエントリを取得します（既定で3件）。抜粋と読了時間付き。
// @Tags         entries
// @Produce      json
// @Success      200 {array} DTO "最新エントリ一覧"
// @Failure      500 {string} string "サーバーエラー"
// @Router       / [get]
func (h HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	entries, err := h.Svc.Recent(ctx)
	if err != nil {
		logger.Error("failed to load home page entries", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTOs(entries))
}
