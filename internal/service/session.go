package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgesite/auth-service/internal/audit"
	"github.com/forgesite/auth-service/internal/events"
	"github.com/forgesite/auth-service/internal/models"
	"github.com/forgesite/auth-service/internal/repo"
	"github.com/forgesite/auth-service/pkg/duration"
	"github.com/forgesite/auth-service/pkg/hash"
	"github.com/forgesite/auth-service/pkg/logging"
	"github.com/forgesite/auth-service/pkg/tokens"
)

const minPasswordLen = 8

// dummyHash burns one bcrypt comparison when the email is unknown, so
// unknown-email and wrong-password failures stay in the same timing
// class.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type SessionService struct {
	Repo          repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     string
	RefreshTTL    string
	Events        *events.Producer
	Audit         *audit.Trail
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *SessionService) Register(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	if email == "" || len(password) < minPasswordLen {
		return nil, ErrValidation
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register failed", "reason", "password hash", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		l.Error("register failed", "reason", "store", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.Events.Publish(ctx, user.ID.String(), map[string]any{
		"type":    "user.registered",
		"user_id": user.ID.String(),
		"email":   user.Email,
	}); err != nil {
		l.Warn("user event publish failed", "error", err)
	}

	l.Info("user registered", "user_id", user.ID.String())
	return &user, nil
}

func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.CheckPassword(dummyHash, password)
			s.Audit.Record(ctx, "login_failed", map[string]any{"email": email})
			return nil, ErrInvalidCredentials
		}
		l.Error("login failed", "reason", "store", "error", err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		s.Audit.Record(ctx, "login_failed", map[string]any{"user_id": user.ID.String()})
		return nil, ErrInvalidCredentials
	}

	accessTTL, refreshTTL, err := s.ttls()
	if err != nil {
		l.Error("login failed", "reason", "config", "error", err)
		return nil, err
	}

	accessToken, err := tokens.Issue(user.ID.String(), s.AccessSecret, accessTTL)
	if err != nil {
		l.Error("login failed", "reason", "issue access token", "error", err)
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := tokens.IssueRefresh(user.ID.String(), s.RefreshSecret, refreshTTL)
	if err != nil {
		l.Error("login failed", "reason", "issue refresh token", "error", err)
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	// The refresh token must be durably recorded before it is handed
	// out: redemption depends on the row existing.
	row := models.RefreshToken{
		Token:     hash.Sha256Hex(refreshToken),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(refreshTTL).Unix(),
	}
	if err := s.Repo.InsertRefreshToken(ctx, &row); err != nil {
		l.Error("login failed", "reason", "persist refresh token", "error", err)
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	// Best-effort: a failed lastLogin update does not fail the login.
	now := time.Now()
	if err := s.Repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		l.Warn("last_login update failed", "user_id", user.ID.String(), "error", err)
	} else {
		user.LastLogin = &now
	}

	s.Audit.Record(ctx, "login_success", map[string]any{"user_id": user.ID.String()})
	l.Info("login successful", "user_id", user.ID.String())

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh redeems a refresh token exactly once: the presented row and a
// valid signature must both check out, and the row is gone the moment a
// replacement pair is minted.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	tokenHash := hash.Sha256Hex(refreshToken)
	row, err := s.Repo.FindRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Audit.Record(ctx, "refresh_rejected", map[string]any{"token_sha256": tokenHash})
			return nil, ErrInvalidToken
		}
		l.Error("refresh failed", "reason", "store", "error", err)
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	// Expired rows are purged on first touch rather than by a sweeper.
	if row.ExpiresAt < time.Now().Unix() {
		if _, err := s.Repo.DeleteRefreshToken(ctx, tokenHash); err != nil {
			l.Error("expired token purge failed", "error", err)
		}
		s.Audit.Record(ctx, "refresh_rejected", map[string]any{"user_id": row.UserID.String()})
		return nil, ErrInvalidToken
	}

	// Second, independent check: a live row with a bad signature means
	// tampering, and the row is burned.
	claims, err := tokens.Parse(refreshToken, s.RefreshSecret)
	if err != nil || claims.UserID != row.UserID.String() {
		if _, delErr := s.Repo.DeleteRefreshToken(ctx, tokenHash); delErr != nil {
			l.Error("tampered token purge failed", "error", delErr)
		}
		s.Audit.Record(ctx, "refresh_rejected", map[string]any{"user_id": row.UserID.String()})
		return nil, ErrInvalidToken
	}

	accessTTL, refreshTTL, err := s.ttls()
	if err != nil {
		l.Error("refresh failed", "reason", "config", "error", err)
		return nil, err
	}

	accessToken, err := tokens.Issue(row.UserID.String(), s.AccessSecret, accessTTL)
	if err != nil {
		l.Error("refresh failed", "reason", "issue access token", "error", err)
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	newRefresh, err := tokens.IssueRefresh(row.UserID.String(), s.RefreshSecret, refreshTTL)
	if err != nil {
		l.Error("refresh failed", "reason", "issue refresh token", "error", err)
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	next := models.RefreshToken{
		Token:     hash.Sha256Hex(newRefresh),
		UserID:    row.UserID,
		ExpiresAt: time.Now().Add(refreshTTL).Unix(),
	}
	if err := s.Repo.RotateRefreshToken(ctx, tokenHash, &next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// A concurrent rotation redeemed the token first.
			s.Audit.Record(ctx, "refresh_rejected", map[string]any{"user_id": row.UserID.String()})
			return nil, ErrInvalidToken
		}
		l.Error("refresh failed", "reason", "rotate", "error", err)
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.Audit.Record(ctx, "token_rotated", map[string]any{"user_id": row.UserID.String()})
	l.Info("refresh token rotated", "user_id", row.UserID.String())

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

// Logout is idempotent and never reveals whether the token was valid.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	removed, err := s.Repo.DeleteRefreshToken(ctx, hash.Sha256Hex(refreshToken))
	if err != nil {
		l.Error("logout failed", "reason", "store", "error", err)
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if removed {
		s.Audit.Record(ctx, "logout", nil)
	}
	return nil
}

func (s *SessionService) Profile(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *SessionService) ttls() (access, refresh time.Duration, err error) {
	access, err = duration.Parse(s.AccessTTL)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: access ttl: %v", ErrConfig, err)
	}
	refresh, err = duration.Parse(s.RefreshTTL)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: refresh ttl: %v", ErrConfig, err)
	}
	return access, refresh, nil
}
