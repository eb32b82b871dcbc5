package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Provider-style error codes mapped to fixed user-facing messages; anything
// unmapped falls back to the underlying message.
const (
	CodeInvalidEmail      = "invalid-email"
	CodeUserDisabled      = "user-disabled"
	CodeUserNotFound      = "user-not-found"
	CodeWrongPassword     = "wrong-password"
	CodeEmailInUse        = "email-already-in-use"
	CodeWeakPassword      = "weak-password"
	CodeInvalidCredential = "invalid-credential"
)

var authErrorMessages = map[string]string{
	CodeInvalidEmail:      "Invalid email address.",
	CodeUserDisabled:      "This account has been disabled.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password.",
	CodeEmailInUse:        "An account already exists with this email.",
	CodeWeakPassword:      "Password should be at least 6 characters.",
	CodeInvalidCredential: "Invalid credentials. Please check your email and password.",
}

type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if msg, ok := authErrorMessages[e.Code]; ok {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "An error occurred. Please try again."
}

func (e *AuthError) Unwrap() error { return e.Err }

func authErr(code string) error { return &AuthError{Code: code} }

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const revokedTokenKeyPrefix = "qitt_revoked_token_"

// RegistrationInfo carries the free-form sign-up form fields.
type RegistrationInfo struct {
	DisplayName string `json:"display_name"`
	University  string `json:"university"`
	Department  string `json:"department"`
	Level       string `json:"level"`
	Phone       string `json:"phone"`
}

// GoogleIdentity is a verified federated identity.
type GoogleIdentity struct {
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
}

// AuthResult is the discriminated outcome of a sign-in or registration.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService interface {
	Register(ctx context.Context, email, password string, info RegistrationInfo) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// LoginWithGoogle creates the profile only on first sign-in.
	LoginWithGoogle(ctx context.Context, identity GoogleIdentity) (*AuthResult, error)
	// SignUpWithGoogle always writes the profile with the supplied form fields.
	SignUpWithGoogle(ctx context.Context, identity GoogleIdentity, info RegistrationInfo) (*AuthResult, error)
	// Logout revokes the token until its natural expiry.
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)

	// Listener registration for session rehydration. The callback receives
	// the signed-in user or nil on sign-out.
	AddListener(fn func(*models.User)) (remove func())
}

type AuthServiceImpl struct {
	users         repository.UserRepository
	kv            cache.KV
	log           *zap.Logger
	jwtSecret     []byte
	expireMinutes int

	listeners *listenerSet
}

func NewAuthService(users repository.UserRepository, kv cache.KV, jwtSecret string, expireMinutes int, log *zap.Logger) AuthService {
	if expireMinutes <= 0 {
		expireMinutes = 60
	}
	return &AuthServiceImpl{
		users:         users,
		kv:            kv,
		log:           log,
		jwtSecret:     []byte(jwtSecret),
		expireMinutes: expireMinutes,
		listeners:     newListenerSet(),
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, info RegistrationInfo) (*AuthResult, error) {
	if !emailPattern.MatchString(email) {
		return nil, authErr(CodeInvalidEmail)
	}
	if len(password) < 6 {
		return nil, authErr(CodeWeakPassword)
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, authErr(CodeEmailInUse)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:            email,
		Password:         string(hash),
		DisplayName:      info.DisplayName,
		University:       info.University,
		Department:       info.Department,
		Level:            info.Level,
		Phone:            info.Phone,
		DailyUploadLimit: models.DefaultDailyUploadLimit,
		Uploads:          []string{},
		SavedMaterials:   []string{},
	}
	if err := s.users.Create(user); err != nil {
		return nil, &AuthError{Err: err}
	}
	return s.signIn(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authErr(CodeUserNotFound)
	}
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if user.Password == "" {
		// Federated-only account, no password to check.
		return nil, authErr(CodeInvalidCredential)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, authErr(CodeWrongPassword)
	}
	return s.signIn(user)
}

func (s *AuthServiceImpl) LoginWithGoogle(ctx context.Context, identity GoogleIdentity) (*AuthResult, error) {
	user, err := s.users.GetByGoogleID(identity.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.createGoogleProfile(identity, RegistrationInfo{})
	}
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	return s.signIn(user)
}

func (s *AuthServiceImpl) SignUpWithGoogle(ctx context.Context, identity GoogleIdentity, info RegistrationInfo) (*AuthResult, error) {
	user, err := s.users.GetByGoogleID(identity.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.createGoogleProfile(identity, info)
	} else if err == nil {
		// Sign-up overwrites the profile with the supplied form fields.
		user.DisplayName = identity.DisplayName
		user.PhotoURL = identity.PhotoURL
		user.University = info.University
		user.Department = info.Department
		user.Level = info.Level
		user.Phone = info.Phone
		err = s.users.Update(user)
	}
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	return s.signIn(user)
}

func (s *AuthServiceImpl) createGoogleProfile(identity GoogleIdentity, info RegistrationInfo) (*models.User, error) {
	user := &models.User{
		Email:            identity.Email,
		GoogleID:         identity.Subject,
		DisplayName:      identity.DisplayName,
		PhotoURL:         identity.PhotoURL,
		University:       info.University,
		Department:       info.Department,
		Level:            info.Level,
		Phone:            info.Phone,
		DailyUploadLimit: models.DefaultDailyUploadLimit,
		Uploads:          []string{},
		SavedMaterials:   []string{},
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err == nil && claims.ID != "" {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.kv.Set(ctx, revokedTokenKeyPrefix+claims.ID, "1", ttl); err != nil {
				s.log.Warn("failed to revoke token", zap.Error(err))
			}
		}
	}
	s.listeners.notify(nil)
	return nil
}

func (s *AuthServiceImpl) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.ID != "" {
		if _, err := s.kv.Get(ctx, revokedTokenKeyPrefix+claims.ID); err == nil {
			return uuid.Nil, errors.New("token revoked")
		}
	}
	return uuid.Parse(claims.Subject)
}

func (s *AuthServiceImpl) AddListener(fn func(*models.User)) func() {
	return s.listeners.add(fn)
}

func (s *AuthServiceImpl) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}
	s.listeners.notify(user)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) generateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireMinutes) * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthServiceImpl) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
