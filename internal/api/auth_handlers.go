package api

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/notify"
	"github.com/lumenforge/aac/internal/tokens"
)

type registerRequest struct {
	TenantSlug  string `json:"tenant_slug"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (req *registerRequest) validate() error {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.Validation("invalid email address", err)
	}
	if len(req.Password) < 12 {
		return apperr.Validation("password must be at least 12 characters", nil)
	}
	if req.TenantSlug == "" {
		return apperr.Validation("tenant_slug is required", nil)
	}
	return nil
}

type registerResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	Email             string    `json:"email"`
	VerificationSent  bool      `json:"verification_sent"`
	VerificationReused bool     `json:"verification_reused"`
}

// Register creates an unverified user and sends (logs, in this deployment)
// an email-verification code.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	tenant, err := s.Org.TenantBySlug(r.Context(), req.TenantSlug)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	result, err := s.Identity.RegisterUser(r.Context(), uuid.UUID(tenant.TenantID.Bytes), req.Email, req.Password, req.DisplayName)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	if !result.Reused {
		if _, err := s.Email.Send(r.Context(), notify.EmailMessage{
			To:       result.User.Email,
			TenantID: uuid.UUID(tenant.TenantID.Bytes),
			Template: notify.TemplateEmailVerification,
			Data:     map[string]any{"code": result.Code, "expires_at": result.ExpiresAt},
		}); err != nil {
			s.Logger.Error("register: sending verification email failed", "err", err)
		}
	}

	helpers.RespondJSON(w, http.StatusCreated, registerResponse{
		UserID:             uuid.UUID(result.User.UserID.Bytes),
		Email:              result.User.Email,
		VerificationSent:   !result.Reused,
		VerificationReused: result.Reused,
	})
}

type verifyEmailRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Code   string    `json:"code"`
}

func (s *Server) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Identity.VerifyEmail(r.Context(), req.UserID, req.Code, time.Now()); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

type loginRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	MFACode    string `json:"mfa_code,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
	OrgID      string `json:"org_id,omitempty"`
	AppID      string `json:"app_id,omitempty"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	MFARequired  bool   `json:"mfa_required,omitempty"`
}

// Login verifies credentials and, when MFA is enabled on the account,
// requires a valid TOTP or backup code in the same request before opening a
// session.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := s.Org.TenantBySlug(r.Context(), req.TenantSlug)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid credentials", err))
		return
	}
	tenantID := uuid.UUID(tenant.TenantID.Bytes)

	user, err := s.Identity.FindByEmail(r.Context(), tenantID, req.Email)
	if err != nil {
		_, _ = crypto.NewArgon2Hasher().Verify(req.Password, crypto.DummyHash)
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid credentials", err))
		return
	}

	ok, err := s.Identity.VerifyPassword(r.Context(), uuid.UUID(user.UserID.Bytes), req.Password)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	if !ok {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid credentials", nil))
		return
	}

	if user.MfaEnabled {
		switch {
		case req.MFACode != "":
			if !s.MFA.VerifyLogin(user, req.MFACode) {
				helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid mfa code", nil))
				return
			}
		case req.BackupCode != "":
			consumed, err := s.MFA.VerifyBackupCode(r.Context(), uuid.UUID(user.UserID.Bytes), req.BackupCode)
			if err != nil {
				helpers.RespondAppErr(w, s.Logger, err)
				return
			}
			if !consumed {
				helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid backup code", nil))
				return
			}
		default:
			helpers.RespondJSON(w, http.StatusOK, loginResponse{MFARequired: true})
			return
		}
	}

	var orgID, appID uuid.UUID
	if req.OrgID != "" {
		orgID, _ = uuid.Parse(req.OrgID)
	}
	if req.AppID != "" {
		appID, _ = uuid.Parse(req.AppID)
	}

	pair, err := s.Sessions.OpenSession(r.Context(), uuid.UUID(user.UserID.Bytes), tenantID, orgID, appID, user.Email, s.RefreshTTL, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	OrgID        string `json:"org_id,omitempty"`
	AppID        string `json:"app_id,omitempty"`
}

// Refresh rotates a refresh token. A reused (already-rotated) token revokes
// every session opened since, per the reuse-detection invariant.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := s.Tokens.Validate(r.Context(), req.RefreshToken, tokens.KindRefresh)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("invalid refresh token", err))
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("malformed refresh token", err))
		return
	}
	user, err := s.DB.GetUserByIDAnyTenant(r.Context(), userID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("unknown user", err))
		return
	}
	tenantID := uuid.UUID(user.TenantID.Bytes)

	var orgID, appID uuid.UUID
	if req.OrgID != "" {
		orgID, _ = uuid.Parse(req.OrgID)
	}
	if req.AppID != "" {
		appID, _ = uuid.Parse(req.AppID)
	}

	pair, err := s.Sessions.Refresh(r.Context(), req.RefreshToken, userID, tenantID, orgID, appID, user.Email, s.RefreshTTL, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var jti string
	var expiry time.Time
	if header := r.Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
		if claims, err := s.Tokens.Validate(r.Context(), header[7:], tokens.KindAccess); err == nil {
			jti = claims.ID
			expiry = claims.ExpiresAt.Time
		}
	}

	if err := s.Sessions.Logout(r.Context(), req.RefreshToken, jti, expiry, time.Now()); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	Sub    string `json:"sub,omitempty"`
	Exp    int64  `json:"exp,omitempty"`
}

func (s *Server) Introspect(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := s.Sessions.Introspect(r.Context(), req.Token)
	resp := introspectResponse{Active: result.Active}
	if result.Active {
		resp.Sub = result.Sub
		resp.Exp = result.Exp.Unix()
	}
	helpers.RespondJSON(w, http.StatusOK, resp)
}

type meResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	user, err := s.DB.GetUserByID(r.Context(), tenantID, userID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("fetching user", err))
		return
	}
	helpers.RespondJSON(w, http.StatusOK, meResponse{UserID: userID, TenantID: tenantID, Email: user.Email})
}

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}
	sessions, err := s.Sessions.ListSessions(r.Context(), userID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, sessions)
}
