// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"

	"github.com/necros240/campusfeedback/internal/app/store/audit"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/inputval"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves password registration, sign-in, and sign-out.
type Handler struct {
	Users    *userstore.Store
	ErrLog   *respond.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a login Handler bound to the users collection.
func NewHandler(db *mongo.Database, errLog *respond.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
	}
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required,min=8,max=128" label:"Password"`
	Name     string `json:"name" validate:"required,max=120" label:"Full name"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
}

// HandleRegister creates a password account with the default role and
// affiliation, then starts a session.
// POST /login/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode register payload", err, "Invalid request body.")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.ServerError(w, r, "hash password", err, "Registration failed.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Email:        in.Email,
		DisplayName:  in.Name,
		AuthMethod:   models.AuthPassword,
		PasswordHash: hash,
	})
	if err == userstore.ErrDuplicateEmail {
		h.AuditLog.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventRegisterDuplicate,
			Success:   false,
			IP:        auditlog.ClientIP(r),
			Details:   map[string]string{"email": in.Email},
		})
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "create user", err, "Registration failed.")
		return
	}

	if err := auth.SignIn(w, r, user.ID.Hex()); err != nil {
		h.ErrLog.ServerError(w, r, "start session", err, "Registration succeeded but sign-in failed.")
		return
	}

	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegisterSuccess,
		UserID:    &user.ID,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	respond.JSON(w, http.StatusCreated, sessionResponse{
		ID:          user.ID.Hex(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Affiliation: user.Affiliation,
	})
}

// HandleLogin verifies the password and starts a session. Auth failures come
// back verbatim in the error body, matching the original's surfaced alerts.
// POST /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode login payload", err, "Invalid request body.")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmailCI(ctx, in.Email)
	if err == userstore.ErrNotFound {
		h.AuditLog.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginFailedUserNotFound,
			Success:   false,
			IP:        auditlog.ClientIP(r),
			Details:   map[string]string{"email": in.Email},
		})
		respond.Error(w, http.StatusUnauthorized, "No account found for that email.")
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "lookup user", err, "Sign-in failed.")
		return
	}

	if user.AuthMethod != models.AuthPassword || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(in.Password)) != nil {
		h.AuditLog.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginFailedWrongPassword,
			UserID:    &user.ID,
			Success:   false,
			IP:        auditlog.ClientIP(r),
		})
		respond.Error(w, http.StatusUnauthorized, "Incorrect email or password.")
		return
	}

	if err := auth.SignIn(w, r, user.ID.Hex()); err != nil {
		h.ErrLog.ServerError(w, r, "start session", err, "Sign-in failed.")
		return
	}

	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &user.ID,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	respond.JSON(w, http.StatusOK, sessionResponse{
		ID:          user.ID.Hex(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Affiliation: user.Affiliation,
	})
}

// HandleLogout tears down the session.
// POST /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		h.AuditLog.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLogout,
			Success:   true,
			IP:        auditlog.ClientIP(r),
			Details:   map[string]string{"user": u.Email},
		})
	}
	if err := auth.SignOut(w, r); err != nil {
		h.ErrLog.ServerError(w, r, "clear session", err, "Sign-out failed.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ServeSession reports the current session user, or 401 when anonymous. The
// client's session/role context polls this once at load.
// GET /login/session
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}
	respond.JSON(w, http.StatusOK, sessionResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		Role:        u.Role,
		Affiliation: u.Affiliation,
	})
}
