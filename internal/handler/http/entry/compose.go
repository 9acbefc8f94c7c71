package entry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inkwell/internal/domain/entity"
	"inkwell/internal/handler/http/pathutil"
	"inkwell/internal/handler/http/respond"
	"inkwell/internal/observability/logging"
	entryUC "inkwell/internal/usecase/entry"
)

// Announcer delivers a freshly published entry to external channels. The
// compose handler hands the entry off after a successful create and never
// waits for delivery.
type Announcer interface {
	AnnounceEntry(ctx context.Context, e *entity.Entry)
}

type ComposeHandler struct {
	Svc       entryUC.Service
	Author    string
	Announcer Announcer
	Logger    *slog.Logger
}

// ServeHTTP エントリ公開
// @Summary      エントリ公開
// @Description  新規エントリを公開、またはIDを指定して既存エントリを再公開します
// @Tags         compose
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        entry body object true "エントリ情報（id・title・markdown）"
// @Success      200 {object} DTO "再公開されたエントリ"
// @Success      201 {object} DTO "公開されたエントリ"
// @Header       201 {string} Location "公開されたエントリのパーマリンク"
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      404 {string} string "Not found - entry not found"
// @Failure      409 {string} string "Conflict - slug already exists"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /compose [post]
func (h ComposeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	var req struct {
		ID       *int64 `json:"id"`
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("request body must be valid JSON"))
		return
	}
	if err := entity.ValidateBody(req.Markdown); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	created := req.ID == nil
	e, err := h.Svc.Publish(ctx, entryUC.PublishInput{
		ID:    req.ID,
		Title: req.Title,
		Body:  req.Markdown,
	}, h.Author)
	if err != nil {
		var ve *entity.ValidationError
		code := http.StatusInternalServerError
		if errors.As(err, &ve) || errors.Is(err, entity.ErrInvalidInput) {
			code = http.StatusBadRequest
		} else if errors.Is(err, entryUC.ErrEntryNotFound) {
			code = http.StatusNotFound
		} else if errors.Is(err, entity.ErrConflict) {
			code = http.StatusConflict
		}
		if code == http.StatusInternalServerError {
			logger.Error("failed to publish entry", slog.Any("error", err))
		}
		respond.SafeError(w, code, err)
		return
	}

	if created {
		if h.Announcer != nil {
			// 通知の完了を待たずにレスポンスを返す
			go h.Announcer.AnnounceEntry(context.WithoutCancel(ctx), e)
		}
		w.Header().Set("Location", e.Permalink())
		respond.JSON(w, http.StatusCreated, toDTO(e))
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(e))
}

// ComposeFormDTO represents the prefill payload for the compose form.
// Markdown carries the raw source, not the rendered HTML.
type ComposeFormDTO struct {
	ID       *int64 `json:"id,omitempty" example:"7"`
	Title    string `json:"title" example:"Hello World"`
	Markdown string `json:"markdown" example:"本文の*markdown*"`
}

type ComposeFormHandler struct{ Svc entryUC.Service }

// ServeHTTP 編集フォーム取得
// @Summary      編集フォーム取得
// @Description  空のフォーム、またはidクエリで指定したエントリの編集用データを返します
// @Tags         compose
// @Security     BearerAuth
// @Produce      json
// @Param        id query int false "再公開するエントリのID"
// @Success      200 {object} ComposeFormDTO "フォームデータ"
// @Failure      400 {string} string "Bad request - invalid entry ID"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      404 {string} string "Not found - entry not found"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /compose [get]
func (h ComposeFormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		respond.JSON(w, http.StatusOK, ComposeFormDTO{})
		return
	}

	id, err := pathutil.ParseID(raw)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	e, err := h.Svc.ByID(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entryUC.ErrInvalidEntryID) {
			code = http.StatusBadRequest
		} else if errors.Is(err, entryUC.ErrEntryNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, ComposeFormDTO{
		ID:       &e.ID,
		Title:    e.Title,
		Markdown: e.Body,
	})
}
