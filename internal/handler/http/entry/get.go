package entry

import (
	"errors"
	"net/http"

	"inkwell/internal/domain/entity"
	"inkwell/internal/handler/http/respond"
	entryUC "inkwell/internal/usecase/entry"
)

type GetHandler struct{ Svc entryUC.Service }

// ServeHTTP エントリ詳細取得
// @Summary      エントリ詳細取得
// @Description  スラグで指定されたエントリを取得します
// @Tags         entries
// @Produce      json
// @Param        slug path string true "エントリのスラグ"
// @Success      200 {object} DTO "エントリ詳細"
// @Failure      400 {string} string "Bad request - invalid slug"
// @Failure      404 {string} string "Not found - entry not found"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /entry/{slug} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e, err := h.Svc.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		var ve *entity.ValidationError
		code := http.StatusInternalServerError
		if errors.As(err, &ve) {
			code = http.StatusBadRequest
		} else if errors.Is(err, entryUC.ErrEntryNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(e))
}

// RedirectSlashHandler sends requests for "/entry/{slug}/" to the canonical
// permalink without the trailing slash.
type RedirectSlashHandler struct{}

func (RedirectSlashHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/entry/"+r.PathValue("slug"), http.StatusMovedPermanently)
}
