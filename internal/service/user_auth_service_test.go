package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rupeeback/internal/config"
	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:user_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "test-secret-key-for-user-tokens-0123456789"
	cfg.UserJWT.ExpireHours = 24
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, token, _, err := svc.Register("Priya@Example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "priya@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.DisplayName != "priya" {
		t.Fatalf("display name not derived from email: %s", user.DisplayName)
	}
	if token == "" {
		t.Fatalf("expected token on register")
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Login("priya@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, err := svc.Login("priya@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register("not-an-email", "s3cret-pass", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, _, err := svc.Register("weak@example.com", "short", ""); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}

	if _, _, _, err := svc.Register("taken@example.com", "s3cret-pass", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, _, err := svc.Register("taken@example.com", "s3cret-pass", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register("blocked@example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled)

	if _, _, _, err := svc.Login("blocked@example.com", "s3cret-pass"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestChangePasswordBumpsTokenVersion(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register("rotate@example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong-old", "n3w-secret-pass"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "s3cret-pass", "n3w-secret-pass"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version should bump: before=%d after=%d", user.TokenVersion, reloaded.TokenVersion)
	}
	if _, _, _, err := svc.Login("rotate@example.com", "n3w-secret-pass"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
