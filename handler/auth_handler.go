package handler

import (
	"errors"
	"net/http"

	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth    service.AuthService
	users   repository.UserRepository
	google  service.FederatedVerifier
	library service.LibraryService
	log     *zap.Logger
}

func NewAuthHandler(auth service.AuthService, users repository.UserRepository, google service.FederatedVerifier, library service.LibraryService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, google: google, library: library, log: log}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	University  string `json:"university"`
	Department  string `json:"department"`
	Level       string `json:"level"`
	Phone       string `json:"phone"`
}

// Register
// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, service.RegistrationInfo{
		DisplayName: req.DisplayName,
		University:  req.University,
		Department:  req.Department,
		Level:       req.Level,
		Phone:       req.Phone,
	})
	if err != nil {
		h.authFailure(c, "register", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

// Login
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authFailure(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

// GoogleAuthURL returns the authorization URL for the given state.
// GET /api/auth/google/url
func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.google.AuthURL(state)})
}

type googleAuthRequest struct {
	Code       string `json:"code"`
	Mode       string `json:"mode"`
	University string `json:"university"`
	Department string `json:"department"`
	Level      string `json:"level"`
	Phone      string `json:"phone"`
}

// GoogleAuth completes the authorization-code flow. Mode "signup" writes the
// profile with the supplied form fields; anything else is a plain sign-in.
// POST /api/auth/google
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req googleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	identity, err := h.google.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		h.log.Warn("google code exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed", "detail": err.Error()})
		return
	}

	var result *service.AuthResult
	if req.Mode == "signup" {
		result, err = h.auth.SignUpWithGoogle(c.Request.Context(), identity, service.RegistrationInfo{
			University: req.University,
			Department: req.Department,
			Level:      req.Level,
			Phone:      req.Phone,
		})
	} else {
		result, err = h.auth.LoginWithGoogle(c.Request.Context(), identity)
	}
	if err != nil {
		h.authFailure(c, "google", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

// Logout revokes the presented token and drops the user's cached library
// entries.
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	header := c.GetHeader("Authorization")
	token := header
	if len(header) > 7 && header[:7] == "Bearer " {
		token = header[7:]
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed", "detail": err.Error()})
		return
	}
	h.library.Reset(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) authFailure(c *gin.Context, op string, err error) {
	h.log.Info("auth request rejected", zap.String("op", op), zap.Error(err))

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		c.JSON(authStatus(authErr.Code), gin.H{"error": err.Error(), "code": authErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func authStatus(code string) int {
	switch code {
	case service.CodeUserNotFound, service.CodeWrongPassword,
		service.CodeInvalidCredential, service.CodeUserDisabled:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
