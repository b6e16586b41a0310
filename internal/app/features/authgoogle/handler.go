// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	"github.com/necros240/campusfeedback/internal/app/store/oauthstate"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler handles Google OAuth sign-in. Unlike password accounts, a Google
// sign-in with no matching user provisions one on the spot with the default
// role and affiliation.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Users      *userstore.Store
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://feedback.example.edu/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	auditLog *auditlog.Logger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Users:        userstore.New(db),
		AuditLog:     auditLog,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code for tokens, fetches user info, finds or provisions the    |
| user, and starts a session.                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("email", googleUser.Email),
		zap.String("name", googleUser.Name))

	user, firstLogin, err := h.findOrCreateUser(ctxTimeout, googleUser)
	if err != nil {
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := auth.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", user.Email))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	eventType := audit.EventGoogleLoginSuccess
	if firstLogin {
		eventType = audit.EventGoogleFirstLogin
	}
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    &user.ID,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID.Hex()),
		zap.Bool("first_login", firstLogin))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup / provisioning                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// findOrCreateUser looks the user up by email and provisions a new account on
// first sign-in. The second return value reports whether the account was just
// created.
func (h *Handler) findOrCreateUser(ctx context.Context, gu *googleUserInfo) (models.User, bool, error) {
	user, err := h.Users.GetByEmailCI(ctx, gu.Email)
	if err == nil {
		return user, false, nil
	}
	if err != userstore.ErrNotFound {
		return models.User{}, false, err
	}

	user, err = h.Users.Create(ctx, models.User{
		Email:       gu.Email,
		DisplayName: gu.Name,
		AuthMethod:  models.AuthGoogle,
		PhotoURL:    gu.Picture,
	})
	if err == userstore.ErrDuplicateEmail {
		// Lost a race with a concurrent first login; the doc exists now.
		user, err = h.Users.GetByEmailCI(ctx, gu.Email)
		return user, false, err
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
