package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/service"
	"github.com/dhkim/snipstash/internal/session"
)

// AuthHandler serves signup, login, logout, the current-user and session
// endpoints, and the optional GitHub OAuth flow.
type AuthHandler struct {
	authSvc  *service.AuthService
	mirror   *session.Mirror
	github   *auth.GitHubProvider // nil when GitHub login is not configured
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the GitHub
// routes are only registered when it is configured.
func NewAuthHandler(
	authSvc *service.AuthService,
	mirror *session.Mirror,
	github *auth.GitHubProvider,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authSvc:  authSvc,
		mirror:   mirror,
		github:   github,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type credentialsBody struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleSignup registers an email/password account and signs it in.
//
// HTTP: POST /api/auth/signup
// BODY: {"email":..., "password":..., "confirmPassword":...}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "Invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.Signup(r.Context(), body.Email, body.Password, body.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin authenticates email/password credentials.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "Invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie and publishes the sign-out event.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	h.authSvc.Logout(userID)

	// MaxAge -1 tells the browser to drop the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleSession returns the caller's session state. The principal comes
// from the caller's own token — the mirror is process-global and must
// never hand one user's identity to another — while the mirror supplies
// the loading flag so clients can tell "still resolving" from "resolved,
// signed out"; the two are distinct states and clients must not treat the
// former as "logged out".
//
// HTTP: GET /api/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	state := h.mirror.Current()
	state.Principal = nil

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		user, err := h.authSvc.GetUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		state.Principal = &session.Principal{UserID: user.ID, Email: user.Email}
		state.Loading = false
	}

	writeJSON(w, http.StatusOK, state)
}

// HandleRefresh issues a fresh token for the authenticated caller.
//
// HTTP: POST /api/auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	result, err := h.authSvc.Refresh(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleGitHubLogin starts the GitHub OAuth flow by redirecting to the
// authorization page. The random state lands in a short-lived cookie and
// must round-trip unchanged — that is the CSRF check.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify state, exchange
// the code, upsert the account, set the session cookie, and bounce to the
// app.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "invalid OAuth state",
		})
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "oauth_failed", Message: "GitHub authentication failed",
		})
		return
	}

	result, err := h.authSvc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// setSessionCookie stores the JWT in the HttpOnly session cookie. The
// cookie outlives the token slightly; an expired token simply fails
// validation on the next request.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
