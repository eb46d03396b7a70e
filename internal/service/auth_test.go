package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tabi-backend/internal/config"
	"tabi-backend/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		AccessTokenMaxAge:      1800,
		RefreshTokenMaxAge:     14 * 24 * 3600,
		PasswordResetTokenAge:  900,
		EmailVerifyTokenMaxAge: 24 * 3600,
	}
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	mockRepo := &mockRefreshTokenRepository{}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	pair, err := svc.GenerateTokenPair(context.Background(), 1, "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.ExpiresIn != 1800 {
		t.Errorf("expires_in = %d, want 1800", pair.ExpiresIn)
	}

	// The stored value must be a hash, never the raw token.
	if len(mockRepo.createdTokens) != 1 {
		t.Fatalf("Create called %d times, want 1", len(mockRepo.createdTokens))
	}
	stored := mockRepo.createdTokens[0]
	if stored.TokenHash == pair.RefreshToken {
		t.Error("refresh token stored in plain text")
	}
	if stored.UserID != 1 {
		t.Errorf("stored user_id = %d, want 1", stored.UserID)
	}

	// The access token carries the email subject and user_id claim.
	token, err := jwt.Parse(pair.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token should parse: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "test@example.com" {
		t.Errorf("sub = %v, want test@example.com", claims["sub"])
	}
	if int64(claims["user_id"].(float64)) != 1 {
		t.Errorf("user_id = %v, want 1", claims["user_id"])
	}
}

func TestAuthService_RefreshTokens_RotatesAndRevokes(t *testing.T) {
	email := "test@example.com"
	active := &model.RefreshToken{
		ID:        "token-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	calls := 0
	mockRepo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			calls++
			if calls == 1 {
				return active, nil
			}
			// Second lookup is for the freshly minted replacement.
			return &model.RefreshToken{ID: "token-2", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	mockUsers := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 1, Username: "testuser", Email: &email}, nil
		},
	}
	svc := NewAuthService(mockRepo, mockUsers, testConfig())

	pair, user, err := svc.RefreshTokens(context.Background(), "raw-refresh-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair == nil || pair.AccessToken == "" {
		t.Fatal("expected a new token pair")
	}
	if user == nil || user.ID != 1 {
		t.Fatalf("expected token owner, got %v", user)
	}

	// A new token row was stored and the old one revoked.
	if len(mockRepo.createdTokens) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createdTokens))
	}
	if len(mockRepo.revokeCalls) != 1 || mockRepo.revokeCalls[0] != "token-1" {
		t.Errorf("Revoke calls = %v, want [token-1]", mockRepo.revokeCalls)
	}
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	revokedAt := time.Now().Add(-time.Minute)
	mockRepo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "token-1",
				UserID:    1,
				ExpiresAt: time.Now().Add(time.Hour),
				RevokedAt: &revokedAt,
			}, nil
		},
	}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "stolen-token")
	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}

	// Replay of a rotated token kills every active session for the user.
	if len(mockRepo.revokeAllCalls) != 1 || mockRepo.revokeAllCalls[0] != 1 {
		t.Errorf("RevokeAllForUser calls = %v, want [1]", mockRepo.revokeAllCalls)
	}
	if len(mockRepo.createdTokens) != 0 {
		t.Error("no new tokens should be issued on reuse")
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	mockRepo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "token-1",
				UserID:    1,
				ExpiresAt: time.Now().Add(-time.Minute),
			}, nil
		},
	}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "old-token")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenExpired)
	}
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc := NewAuthService(&mockRefreshTokenRepository{}, &mockUserRepository{}, testConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "never-issued")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenNotFound)
	}
}

func TestAuthService_RevokeRefreshToken_MissingIsNoop(t *testing.T) {
	mockRepo := &mockRefreshTokenRepository{}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	if err := svc.RevokeRefreshToken(context.Background(), "unknown"); err != nil {
		t.Fatalf("revoking a missing token should succeed, got %v", err)
	}
	if len(mockRepo.revokeCalls) != 0 {
		t.Error("Revoke should not be called for unknown tokens")
	}
}

func TestAuthService_RevokeRefreshToken_LookupFailurePropagates(t *testing.T) {
	dbErr := errors.New("connection reset")
	mockRepo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return nil, dbErr
		},
	}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	// Only a missing token is a no-op; a failed lookup must not report a
	// successful logout.
	err := svc.RevokeRefreshToken(context.Background(), "some-token")
	if !errors.Is(err, dbErr) {
		t.Fatalf("error = %v, want %v", err, dbErr)
	}
	if len(mockRepo.revokeCalls) != 0 {
		t.Error("Revoke should not be called when the lookup fails")
	}
}

func TestAuthService_PurgeExpiredTokens(t *testing.T) {
	mockRepo := &mockRefreshTokenRepository{
		deleteExpiredFn: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			return 3, nil
		},
	}
	svc := NewAuthService(mockRepo, &mockUserRepository{}, testConfig())

	purged, err := svc.PurgeExpiredTokens(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purged != 3 {
		t.Errorf("purged = %d, want 3", purged)
	}
	if len(mockRepo.deleteExpiredCalls) != 1 || mockRepo.deleteExpiredCalls[0] != 24*time.Hour {
		t.Errorf("DeleteExpired calls = %v, want [24h]", mockRepo.deleteExpiredCalls)
	}
}

// =============================================================================
// PURPOSE TOKEN TESTS
// =============================================================================

func TestAuthService_PurposeTokens(t *testing.T) {
	svc := NewAuthService(&mockRefreshTokenRepository{}, &mockUserRepository{}, testConfig())

	resetToken, err := svc.GeneratePasswordResetToken("test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	email, err := svc.ParsePurposeToken(resetToken, TokenPurposePasswordReset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email != "test@example.com" {
		t.Errorf("email = %q, want test@example.com", email)
	}

	// A reset token must not pass as a verification token.
	if _, err := svc.ParsePurposeToken(resetToken, TokenPurposeEmailVerify); err == nil {
		t.Error("wrong purpose should be rejected")
	}

	if _, err := svc.ParsePurposeToken("garbage", TokenPurposePasswordReset); err == nil {
		t.Error("malformed token should be rejected")
	}
}
