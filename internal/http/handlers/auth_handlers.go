package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/middleware"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
)

// AuthHandlers exposes the auth service over HTTP
type AuthHandlers struct {
	authSvc  domain.AuthService
	identity domain.IdentityVerifier
	log      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, identity domain.IdentityVerifier, log *slog.Logger) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, identity: identity, log: log}
}

// credentials accepts both the generic field names and the vendor ones.
type credentials struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	BusinessEmail    string `json:"businessEmail"`
	BusinessPassword string `json:"businessPassword"`
	AgreeToTerms     bool   `json:"agreeToTerms"`
}

func (c credentials) email() string {
	if c.BusinessEmail != "" {
		return c.BusinessEmail
	}
	return c.Email
}

func (c credentials) password() string {
	if c.BusinessPassword != "" {
		return c.BusinessPassword
	}
	return c.Password
}

// ResetRequest completes a password reset. Token is the emailed code.
type ResetRequest struct {
	Email         string `json:"email"`
	BusinessEmail string `json:"businessEmail"`
	Token         string `json:"token" binding:"required"`
	NewPassword   string `json:"newPassword" binding:"required"`
}

// ChangePasswordRequest replaces the password of the caller.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SocialRequest carries the identity provider assertion when it is not sent as a bearer token.
type SocialRequest struct {
	IDToken string `json:"idToken"`
}

// Signup returns the signup handler for role. Profile fields sit next to the
// credentials in one flat JSON object.
func (h *AuthHandlers) Signup(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			respond.Error(c, domain.ErrValidation("could not read request body"))
			return
		}
		var creds credentials
		if err := json.Unmarshal(raw, &creds); err != nil {
			respond.Error(c, domain.ErrValidation("request body must be a JSON object"))
			return
		}
		profile, err := decodeProfile(role, raw)
		if err != nil {
			respond.Error(c, err)
			return
		}

		result, err := h.authSvc.Signup(c.Request.Context(), domain.SignupInput{
			Role:         role,
			Email:        creds.email(),
			Password:     creds.password(),
			AgreeToTerms: creds.AgreeToTerms,
			Profile:      profile,
			ClientIP:     c.ClientIP(),
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		respond.WithToken(c, http.StatusCreated, roleTitle(role)+" registered successfully", result.Principal, result.Token)
	}
}

// Login returns the login handler for role.
func (h *AuthHandlers) Login(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			respond.Error(c, domain.ErrValidation("request body must be a JSON object"))
			return
		}

		result, err := h.authSvc.Login(c.Request.Context(), role, domain.LoginInput{
			Email:    creds.email(),
			Password: creds.password(),
			ClientIP: c.ClientIP(),
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		respond.WithToken(c, http.StatusOK, "Login successful", result.Principal, result.Token)
	}
}

// SocialSignup creates a customer from an identity provider assertion.
func (h *AuthHandlers) SocialSignup(c *gin.Context) {
	identity, ok := h.verifyIdentity(c)
	if !ok {
		return
	}
	result, err := h.authSvc.SocialSignup(c.Request.Context(), identity, c.ClientIP())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.WithToken(c, http.StatusCreated, "Customer registered successfully", result.Principal, result.Token)
}

// SocialLogin signs in a customer from an identity provider assertion.
func (h *AuthHandlers) SocialLogin(c *gin.Context) {
	identity, ok := h.verifyIdentity(c)
	if !ok {
		return
	}
	result, err := h.authSvc.SocialLogin(c.Request.Context(), identity, c.ClientIP())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.WithToken(c, http.StatusOK, "Login successful", result.Principal, result.Token)
}

func (h *AuthHandlers) verifyIdentity(c *gin.Context) (*domain.ExternalIdentity, bool) {
	assertion, ok := middleware.BearerToken(c)
	if !ok {
		var req SocialRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(c, domain.ErrValidation("request body must be a JSON object"))
			return nil, false
		}
		assertion = req.IDToken
	}
	if assertion == "" {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "identity token required"))
		return nil, false
	}

	identity, err := h.identity.VerifyIdentity(c.Request.Context(), assertion)
	if err != nil {
		respond.Error(c, err)
		return nil, false
	}
	return identity, true
}

// RequestReset returns the reset-code handler for role. The answer does not
// reveal whether the address has an account.
func (h *AuthHandlers) RequestReset(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			respond.Error(c, domain.ErrValidation("request body must be a JSON object"))
			return
		}
		if err := h.authSvc.RequestReset(c.Request.Context(), role, creds.email()); err != nil {
			respond.Error(c, err)
			return
		}
		respond.OK(c, http.StatusOK, "If an account exists for this email, a reset code has been sent", nil)
	}
}

// ResetPassword returns the handler that consumes a reset code for role.
func (h *AuthHandlers) ResetPassword(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.ErrValidation("token and newPassword are required"))
			return
		}
		email := req.Email
		if req.BusinessEmail != "" {
			email = req.BusinessEmail
		}

		err := h.authSvc.ResetPassword(c.Request.Context(), role, domain.ResetInput{
			Email:       email,
			Code:        req.Token,
			NewPassword: req.NewPassword,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		respond.OK(c, http.StatusOK, "Password reset successful", nil)
	}
}

// Verify checks the bearer token and returns the principal it belongs to.
func (h *AuthHandlers) Verify(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "no token provided"))
		return
	}
	profile, err := h.authSvc.VerifyToken(c.Request.Context(), token)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Token is valid", profile)
}

// GetProfile returns the caller's profile.
func (h *AuthHandlers) GetProfile(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "no token provided"))
		return
	}
	profile, err := h.authSvc.GetProfile(c.Request.Context(), token)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateProfile applies the non-empty profile fields of the body. A
// password or businessPassword field also replaces the password.
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "no token provided"))
		return
	}
	profile, err := h.authSvc.VerifyToken(c.Request.Context(), token)
	if err != nil {
		respond.Error(c, err)
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		respond.Error(c, domain.ErrValidation("could not read request body"))
		return
	}
	var creds credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		respond.Error(c, domain.ErrValidation("request body must be a JSON object"))
		return
	}
	patch, err := decodeProfile(profile.Role, raw)
	if err != nil {
		respond.Error(c, err)
		return
	}

	update := domain.ProfileUpdate{NewPassword: creds.password()}
	if !isEmptyProfile(patch) {
		update.Profile = patch
	}
	updated, err := h.authSvc.UpdateProfile(c.Request.Context(), token, update)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Profile updated successfully", updated)
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "no token provided"))
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, domain.ErrValidation("currentPassword and newPassword are required"))
		return
	}
	if err := h.authSvc.ChangePassword(c.Request.Context(), token, req.CurrentPassword, req.NewPassword); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Password changed successfully, please log in again", nil)
}

// Deactivate deactivates the caller's account.
func (h *AuthHandlers) Deactivate(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		respond.Error(c, domain.NewAuthError(domain.KindMalformedToken, "no token provided"))
		return
	}
	if err := h.authSvc.DeactivateAccount(c.Request.Context(), token); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Account deactivated successfully", nil)
}

// PurgeCustomer permanently deletes the customer named in the path. Access is
// decided by the casbin middleware.
func (h *AuthHandlers) PurgeCustomer(c *gin.Context) {
	id := c.Param("id")
	if err := h.authSvc.PurgeCustomer(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "customer purged", "customer_id", id, "by", c.GetString(middleware.PrincipalIDKey))
	respond.OK(c, http.StatusOK, "Customer deleted successfully", nil)
}

func decodeProfile(role domain.Role, raw []byte) (domain.Profile, error) {
	profile, ok := domain.EmptyProfile(role)
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	if len(raw) == 0 {
		return profile, nil
	}
	if err := json.Unmarshal(raw, profile); err != nil {
		return nil, domain.ErrValidation(fmt.Sprintf("invalid %s profile: %v", role, err))
	}
	return profile, nil
}

func isEmptyProfile(p domain.Profile) bool {
	empty, _ := domain.EmptyProfile(p.Role())
	a, _ := json.Marshal(p)
	b, _ := json.Marshal(empty)
	return string(a) == string(b)
}

func roleTitle(role domain.Role) string {
	switch role {
	case domain.RoleCustomer:
		return "Customer"
	case domain.RoleVendor:
		return "Vendor"
	case domain.RoleAdmin:
		return "Admin"
	case domain.RoleDeliveryAgent:
		return "Delivery agent"
	}
	return "Account"
}
