package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/handler/http/requestid"
	authservice "inkwell/internal/service/auth"
)

type loginRequest struct {
	Email    string `json:"email" example:"author@inkwell.blog"`
	Password string `json:"password" example:"correct horse battery staple"`
}

type tokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiJ9..."`
}

// TokenHandler returns the POST /auth/token handler: it validates the posted
// credentials through authService, resolves the account's role, and issues an
// HS256 JWT valid for tokenTTL.
//
// @Summary      JWT トークン取得
// @Description  メールアドレスとパスワードで認証し、JWT トークンを発行します
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "ログイン情報"
// @Success      200 {object} tokenResponse "JWT トークン"
// @Failure      400 {string} string "リクエストが不正"
// @Failure      401 {string} string "認証失敗"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Header       429 {integer} Retry-After "Seconds until the client should retry"
// @Failure      500 {string} string "トークン生成失敗"
// @Router       /auth/token [post]
func TokenHandler(authService *authservice.AuthService, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := slog.With(slog.String("request_id", requestid.FromContext(r.Context())))

		// ログには失敗理由を残し、レスポンスには漏らさない
		deny := func(status int, body, reason, role string) {
			logger.Warn("authentication failed",
				slog.String("reason", reason),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest(role, "failure")
			RecordAuthDuration(role, time.Since(start).Seconds())
			http.Error(w, body, status)
		}

		logger.Info("authentication attempt started")

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			deny(http.StatusBadRequest, "invalid request", "invalid_request", "unknown")
			return
		}

		creds := authservice.Credentials{Username: req.Email, Password: req.Password}
		if err := authService.ValidateCredentials(r.Context(), creds); err != nil {
			deny(http.StatusUnauthorized, "unauthorized", "invalid_credentials", "unknown")
			return
		}

		role, err := authService.GetProvider().IdentifyUser(r.Context(), req.Email)
		if err != nil {
			deny(http.StatusUnauthorized, "unauthorized", "role_identification_failed", "unknown")
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  req.Email,
			"role": role,
			"exp":  time.Now().Add(tokenTTL).Unix(),
		})
		signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
		if err != nil {
			logger.Error("token generation failed",
				slog.String("error", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest(role, "failure")
			RecordAuthDuration(role, time.Since(start).Seconds())
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		logger.Info("authentication successful",
			slog.String("user_email", req.Email),
			slog.String("role", role),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		RecordAuthRequest(role, "success")
		RecordAuthDuration(role, time.Since(start).Seconds())

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tokenResponse{Token: signed}); err != nil {
			logger.Error("failed to encode token response", slog.String("error", err.Error()))
		}
	}
}
