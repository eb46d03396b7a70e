package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tabi-backend/internal/config"
	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// Purpose values carried by single-use mail tokens.
const (
	TokenPurposePasswordReset = "password_reset"
	TokenPurposeEmailVerify   = "email_verify"
)

// AuthService handles the token lifecycle: short-lived signed access tokens,
// opaque refresh tokens with rotation and reuse detection, and the signed
// single-purpose tokens mailed for password reset and email verification.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	userRepo         repository.UserRepository
	config           *config.Config
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		userRepo:         userRepo,
		config:           cfg,
	}
}

// GenerateTokenPair issues a new access token and persists a refresh token.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64, email string) (*model.TokenPair, error) {
	accessToken, err := s.generateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()

	refreshToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: s.hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, nil
}

// RefreshTokens validates the refresh token and rotates a new pair. Replay
// of a revoked token revokes every active token for that user: the original
// holder is forced to log in again, the thief gets nothing.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw string) (*model.TokenPair, *model.User, error) {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if errors.Is(err, model.ErrRefreshTokenNotFound) {
		return nil, nil, model.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if token.IsRevoked() {
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
			return nil, nil, fmt.Errorf("failed to revoke token family: %w", err)
		}
		return nil, nil, model.ErrRefreshTokenReused
	}

	if token.IsExpired() {
		return nil, nil, model.ErrRefreshTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	var email string
	if user.Email != nil {
		email = *user.Email
	}
	newTokenPair, err := s.GenerateTokenPair(ctx, user.ID, email)
	if err != nil {
		return nil, nil, err
	}

	// Link the old token to its replacement so a later replay can be traced.
	var replacedByID *string
	if newToken, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(newTokenPair.RefreshToken)); err == nil && newToken != nil {
		replacedByID = &newToken.ID
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, replacedByID); err != nil {
		return nil, nil, fmt.Errorf("failed to revoke rotated token: %w", err)
	}

	return newTokenPair, user, nil
}

// RevokeRefreshToken revokes one token. Revoking a missing or already
// revoked token is a no-op, not an error; a failed lookup still is one.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if errors.Is(err, model.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

// DeleteAllUserTokens hard-deletes every refresh token row for the user.
// Used after a password change.
func (s *AuthService) DeleteAllUserTokens(ctx context.Context, userID int64) error {
	_, err := s.refreshTokenRepo.DeleteAllForUser(ctx, userID)
	return err
}

// PurgeExpiredTokens deletes token rows that expired more than olderThan
// ago. Recently expired rows stay so a replayed rotation chain can still be
// traced; the sweep runs at startup.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx, olderThan)
}

// GeneratePasswordResetToken mints a short-lived signed token for a reset mail.
func (s *AuthService) GeneratePasswordResetToken(email string) (string, error) {
	return s.generatePurposeToken(email, TokenPurposePasswordReset,
		time.Duration(s.config.PasswordResetTokenAge)*time.Second)
}

// GenerateEmailVerifyToken mints a signed token for a verification mail.
func (s *AuthService) GenerateEmailVerifyToken(email string) (string, error) {
	return s.generatePurposeToken(email, TokenPurposeEmailVerify,
		time.Duration(s.config.EmailVerifyTokenMaxAge)*time.Second)
}

// ParsePurposeToken validates a mailed token and returns its subject email.
// A wrong purpose fails the same way as a bad signature.
func (s *AuthService) ParsePurposeToken(tokenString, wantPurpose string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", model.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrInvalidCredentials
	}
	if purpose, _ := claims["purpose"].(string); purpose != wantPurpose {
		return "", model.ErrInvalidCredentials
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return "", model.ErrInvalidCredentials
	}
	return email, nil
}

func (s *AuthService) generateAccessToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     email,
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) generatePurposeToken(email, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     email,
		"purpose": purpose,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
