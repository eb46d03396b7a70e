package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tabi-backend/internal/model"
)

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			// Simulate database setting ID and timestamps
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo)

	req := &model.RegisterRequest{
		Username:    "testuser",
		Email:       "Test@Example.com",
		Password:    "securepassword123",
		DisplayName: "Test User",
	}

	user, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}

	if user.Username != "testuser" {
		t.Errorf("username = %q, want %q", user.Username, "testuser")
	}

	// Email is normalized to lowercase.
	if user.Email == nil || *user.Email != "test@example.com" {
		t.Errorf("email = %v, want %q", user.Email, "test@example.com")
	}

	if user.DisplayName == nil || *user.DisplayName != req.DisplayName {
		t.Errorf("display_name = %v, want %q", user.DisplayName, req.DisplayName)
	}

	// Verify password was hashed (not stored in plain text!)
	if user.PasswordHashed == nil || *user.PasswordHashed == req.Password {
		t.Fatal("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_UsernameExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "existinguser",
		Email:    "new@example.com",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrUsernameExists) {
		t.Errorf("error = %v, want %v", err, model.ErrUsernameExists)
	}
	if user != nil {
		t.Error("user should be nil when registration fails")
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when username exists")
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "newuser",
		Email:    "taken@example.com",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want %v", err, model.ErrEmailExists)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when email exists")
	}
}

func TestUserService_Register_CreateError(t *testing.T) {
	dbError := errors.New("insert failed")
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return dbError
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	})

	if !errors.Is(err, dbError) {
		t.Errorf("error should wrap create error, got %v", err)
	}
}

func TestUserService_Register_WithoutDisplayName(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			return nil
		},
	}
	svc := NewUserService(mockRepo)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
		// DisplayName intentionally omitted
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.DisplayName != nil {
		t.Errorf("display_name should be nil when not provided, got %v", user.DisplayName)
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)
	hash := string(validHash)
	email := "test@example.com"

	testUser := &model.User{
		ID:             1,
		Username:       "testuser",
		Email:          &email,
		PasswordHashed: &hash,
	}

	tests := []struct {
		name      string
		email     string
		password  string
		mockGetFn func(ctx context.Context, email string) (*model.User, error)
		wantErr   error
		wantUser  bool
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  nil,
			wantUser: true,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "anypassword",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal the email is unknown
			wantUser: false,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrongpassword",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
		{
			name:     "database error",
			email:    "test@example.com",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, errors.New("database error")
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal internal errors
			wantUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByEmailFn: tt.mockGetFn,
			}
			svc := NewUserService(mockRepo)

			user, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
		})
	}
}

// =============================================================================
// PASSWORD RESET TESTS
// =============================================================================

func TestUserService_ResetPassword(t *testing.T) {
	email := "test@example.com"
	var storedHash string

	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, e string) (*model.User, error) {
			if e != email {
				return nil, model.ErrUserNotFound
			}
			return &model.User{ID: 7, Username: "testuser", Email: &email}, nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHashed string) error {
			if id != 7 {
				t.Errorf("UpdatePassword called with id %d, want 7", id)
			}
			storedHash = passwordHashed
			return nil
		},
	}
	svc := NewUserService(mockRepo)

	user, err := svc.ResetPassword(context.Background(), "Test@Example.COM", "new-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user ID = %d, want 7", user.ID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("new-password")); err != nil {
		t.Error("stored hash should match the new password")
	}
}

func TestUserService_ResetPassword_UnknownEmail(t *testing.T) {
	svc := NewUserService(&mockUserRepository{})

	_, err := svc.ResetPassword(context.Background(), "nobody@example.com", "new-password")
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}
