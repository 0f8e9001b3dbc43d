package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jobtracker/apiserver/internal/auth"
	"github.com/jobtracker/apiserver/internal/metrics"
	"github.com/jobtracker/apiserver/internal/services"
	"github.com/jobtracker/apiserver/internal/session"
	"github.com/jobtracker/apiserver/internal/store"
)

// SignUpRequest is the sign-up body.
type SignUpRequest struct {
	Email           string `json:"profileEmail" jsonschema:"format=email,maxLength=128"`
	Username        string `json:"profileUsername" jsonschema:"minLength=1,maxLength=100"`
	Password        string `json:"profilePassword" jsonschema:"minLength=8,maxLength=32"`
	PasswordConfirm string `json:"profilePasswordConfirm" jsonschema:"minLength=8,maxLength=32"`
}

// SignInRequest is the sign-in body.
type SignInRequest struct {
	Email    string `json:"profileEmail" jsonschema:"format=email,maxLength=128"`
	Password string `json:"profilePassword" jsonschema:"minLength=8,maxLength=32"`
}

var (
	signUpSchema = mustRequestSchema("https://jobtracker.local/schemas/sign-up.json", &SignUpRequest{}, map[string]string{
		"profileEmail":           "Please provide a valid email address.",
		"profileUsername":        "Username must be between 1 and 100 characters.",
		"profilePassword":        "Password must be between 8 and 32 characters.",
		"profilePasswordConfirm": "Password confirmation must be between 8 and 32 characters.",
	})
	signInSchema = mustRequestSchema("https://jobtracker.local/schemas/sign-in.json", &SignInRequest{}, map[string]string{
		"profileEmail":    "Please provide a valid email address.",
		"profilePassword": "Password must be between 8 and 32 characters.",
	})
)

// AuthHandler serves sign-up, activation, sign-in and sign-out, and owns
// the request gate.
type AuthHandler struct {
	auth     *auth.Service
	profiles *services.ProfileService
	sessions *session.Manager
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAuthHandler(
	authService *auth.Service,
	profiles *services.ProfileService,
	sessions *session.Manager,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		profiles: profiles,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// AuthRouter registers the public auth routes. signInLimiter may be nil.
func AuthRouter(r chi.Router, h *AuthHandler, signInLimiter *ClientRateLimiter) {
	r.Post("/sign-up", h.SignUp)
	r.Get("/sign-up/activation/{profileActivationToken}", h.Activate)
	r.With(signInLimiter.Middleware).Post("/sign-in", h.SignIn)
	r.Get("/sign-out", h.SignOut)
	r.Post("/sign-out", h.SignOut)
}

// RequireAuth admits a request only when the session holds a profile and
// signature and the Authorization header carries exactly the session's
// current token, verified under that signature.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if _, err := auth.Authenticate(sess.Data, presentedToken(r)); err != nil {
			h.metrics.RecordGateDenial()
			h.logger.DebugContext(r.Context(), "request denied", "path", r.URL.Path, "reason", err)
			writeStatus(w, http.StatusUnauthorized, auth.MessagePleaseLogin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := signUpSchema.decode(w, r, &req); err != nil {
		h.metrics.RecordSignUp(metrics.OutcomeInvalidInput)
		writeValidationError(w, err)
		return
	}

	username, ok := trimmed(req.Username)
	if !ok {
		h.metrics.RecordSignUp(metrics.OutcomeInvalidInput)
		writeValidationError(w, &ValidationError{
			Message: signUpSchema.message("profileUsername"),
			Fields:  map[string]string{"profileUsername": signUpSchema.message("profileUsername")},
		})
		return
	}
	if req.Password != req.PasswordConfirm {
		h.metrics.RecordSignUp(metrics.OutcomeInvalidInput)
		writeValidationError(w, &ValidationError{
			Message: MessagePasswordsMismatch,
			Fields:  map[string]string{"profilePasswordConfirm": MessagePasswordsMismatch},
		})
		return
	}

	_, err := h.profiles.SignUp(r.Context(), services.SignUpInput{
		Email:    strings.TrimSpace(req.Email),
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			h.metrics.RecordSignUp(metrics.OutcomeDuplicate)
			writeStatus(w, http.StatusConflict, MessageDuplicateEmail)
			return
		}
		h.metrics.RecordSignUp(metrics.OutcomeError)
		h.internalError(w, r, "sign-up failed", err)
		return
	}

	h.metrics.RecordSignUp(metrics.OutcomeSuccess)
	writeStatus(w, http.StatusOK, MessageSignUpSuccess)
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "profileActivationToken")
	if err := h.profiles.Activate(r.Context(), token); err != nil {
		if errors.Is(err, services.ErrActivationFailed) {
			writeStatus(w, http.StatusBadRequest, MessageActivationFailed)
			return
		}
		h.internalError(w, r, "activation failed", err)
		return
	}
	writeStatus(w, http.StatusOK, MessageActivated)
}

// SignIn verifies credentials, binds a fresh session to the grant and
// returns the token in the Authorization header.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := signInSchema.decode(w, r, &req); err != nil {
		h.metrics.RecordSignIn(metrics.OutcomeInvalidInput)
		writeValidationError(w, err)
		return
	}

	grant, err := h.auth.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.RecordSignIn(metrics.OutcomeInvalid)
		writeStatus(w, http.StatusBadRequest, auth.MessageInvalidCredentials)
		return
	case errors.Is(err, auth.ErrNotActivated):
		h.metrics.RecordSignIn(metrics.OutcomeNotActivated)
		writeStatus(w, http.StatusBadRequest, auth.MessageNotActivated)
		return
	default:
		h.metrics.RecordSignIn(metrics.OutcomeError)
		h.internalError(w, r, "sign-in failed", err)
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.sessions.Regenerate(r.Context(), w, sess, grant.SessionData()); err != nil {
		h.metrics.RecordSignIn(metrics.OutcomeError)
		h.internalError(w, r, "sign-in session save failed", err)
		return
	}

	h.metrics.RecordSignIn(metrics.OutcomeSuccess)
	w.Header().Set("Authorization", grant.Token)
	writeStatus(w, http.StatusOK, MessageSignInSuccess)
}

// SignOut destroys the session. It succeeds for anonymous callers too.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		h.internalError(w, r, "sign-out failed", err)
		return
	}
	writeStatus(w, http.StatusOK, MessageSignedOut)
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logInternal(h.logger, r, msg, err)
	writeStatus(w, http.StatusInternalServerError, MessageInternalError)
}

// presentedToken reads the Authorization header. The raw token is the
// documented form; a "Bearer " prefix is tolerated.
func presentedToken(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}
