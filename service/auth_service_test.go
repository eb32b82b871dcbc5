package service

import (
	"context"
	"testing"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuthService(users *fakeUserRepo) AuthService {
	return NewAuthService(users, cache.NewMemoryKV(), "test-secret", 60, zap.NewNop())
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "secret123", RegistrationInfo{})
	require.Error(t, err)
	assert.Equal(t, "Invalid email address.", err.Error())

	_, err = svc.Register(ctx, "ada@uni.edu", "short", RegistrationInfo{})
	require.Error(t, err)
	assert.Equal(t, "Password should be at least 6 characters.", err.Error())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ada@uni.edu", "secret456", RegistrationInfo{})
	require.Error(t, err)
	assert.Equal(t, "An account already exists with this email.", err.Error())
}

func TestRegisterSetsProfileDefaults(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	result, err := svc.Register(context.Background(), "ada@uni.edu", "secret123", RegistrationInfo{
		DisplayName: "Ada",
		University:  "UofT",
		Department:  "CS",
		Level:       "300",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.NotEmpty(t, result.Token)

	user := result.User
	assert.Equal(t, models.DefaultDailyUploadLimit, user.DailyUploadLimit)
	assert.NotNil(t, user.Uploads)
	assert.Empty(t, user.Uploads)
	assert.NotNil(t, user.SavedMaterials)
	assert.Empty(t, user.SavedMaterials)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
}

func TestLoginErrorMessages(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ghost@uni.edu", "whatever")
	require.Error(t, err)
	assert.Equal(t, "No account found with this email.", err.Error())

	_, err = svc.Register(ctx, "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@uni.edu", "wrongpass")
	require.Error(t, err)
	assert.Equal(t, "Incorrect password.", err.Error())
}

func TestLoginFederatedOnlyAccount(t *testing.T) {
	users := newFakeUserRepo()
	require.NoError(t, users.Create(&models.User{Email: "g@uni.edu", GoogleID: "goog-1"}))
	svc := newTestAuthService(users)

	_, err := svc.Login(context.Background(), "g@uni.edu", "anything")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials. Please check your email and password.", err.Error())
}

func TestLoginRoundTrip(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "ada@uni.edu", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)

	userID, err := svc.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)
}

func TestGoogleLoginCreatesProfileOnce(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	ctx := context.Background()
	identity := GoogleIdentity{Subject: "goog-1", Email: "ada@gmail.com", DisplayName: "Ada", PhotoURL: "https://p/ada.jpg"}

	first, err := svc.LoginWithGoogle(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "goog-1", first.User.GoogleID)
	assert.Equal(t, models.DefaultDailyUploadLimit, first.User.DailyUploadLimit)

	second, err := svc.LoginWithGoogle(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Len(t, users.users, 1)
}

func TestGoogleSignUpOverwritesProfileFields(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	ctx := context.Background()
	identity := GoogleIdentity{Subject: "goog-1", Email: "ada@gmail.com", DisplayName: "Ada"}

	_, err := svc.LoginWithGoogle(ctx, identity)
	require.NoError(t, err)

	result, err := svc.SignUpWithGoogle(ctx, identity, RegistrationInfo{University: "UofT", Department: "CS", Level: "300"})
	require.NoError(t, err)
	assert.Equal(t, "UofT", result.User.University)
	assert.Equal(t, "CS", result.User.Department)
	assert.Len(t, users.users, 1)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	ctx := context.Background()

	result, err := svc.Register(ctx, "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, result.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))

	_, err = svc.ValidateToken(ctx, result.Token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	users := newFakeUserRepo()
	issuer := NewAuthService(users, cache.NewMemoryKV(), "secret-a", 60, zap.NewNop())
	verifier := NewAuthService(users, cache.NewMemoryKV(), "secret-b", 60, zap.NewNop())
	ctx := context.Background()

	result, err := issuer.Register(ctx, "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(ctx, result.Token)
	assert.Error(t, err)
}

func TestSessionObservesAuthTransitions(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	session := NewSession(svc)

	assert.True(t, session.State().Loading)

	session.Start()
	state := session.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.User)

	result, err := svc.Register(context.Background(), "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)

	state = session.State()
	require.NotNil(t, state.User)
	assert.Equal(t, result.User.ID, state.User.ID)

	require.NoError(t, svc.Logout(context.Background(), result.Token))
	assert.Nil(t, session.State().User)
}

func TestSessionStopIsIdempotent(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	session := NewSession(svc)
	session.Start()

	session.Stop()
	session.Stop()

	// After Stop the session no longer observes transitions.
	_, err := svc.Register(context.Background(), "ada@uni.edu", "secret123", RegistrationInfo{})
	require.NoError(t, err)
	assert.Nil(t, session.State().User)
}

func TestSessionSubscribeDeliversCurrentState(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	session := NewSession(svc)

	var delivered []SessionState
	session.Subscribe(func(s SessionState) { delivered = append(delivered, s) })

	require.Len(t, delivered, 1)
	assert.True(t, delivered[0].Loading)

	session.Start()
	require.Len(t, delivered, 2)
	assert.False(t, delivered[1].Loading)
}

func TestSessionStartIsGuarded(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	session := NewSession(svc)

	var calls int
	session.Subscribe(func(SessionState) { calls++ })

	session.Start()
	session.Start()
	assert.Equal(t, 2, calls, "second Start must not republish")
}
