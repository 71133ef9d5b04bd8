package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgesite/auth-service/internal/audit"
	"github.com/forgesite/auth-service/internal/events"
	"github.com/forgesite/auth-service/internal/models"
	"github.com/forgesite/auth-service/internal/repo"
	"github.com/forgesite/auth-service/pkg/duration"
	"github.com/forgesite/auth-service/pkg/hash"
	"github.com/forgesite/auth-service/pkg/logging"
)

type ResetService struct {
	Repo     repo.GormRepo
	ResetTTL string
	Events   *events.Producer
	Audit    *audit.Trail
}

// RequestReset returns the raw secret for an existing account and ""
// for an unknown email. Callers must present the same response either
// way; the secret is handed back synchronously here instead of being
// emailed.
func (s *ResetService) RequestReset(ctx context.Context, email string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "reset.request")

	if email == "" {
		return "", ErrValidation
	}

	ttl, err := duration.Parse(s.ResetTTL)
	if err != nil {
		l.Error("reset request failed", "reason", "config", "error", err)
		return "", fmt.Errorf("%w: reset ttl: %v", ErrConfig, err)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Same outward behavior as the found case, so the response
			// shape cannot be used to enumerate accounts.
			return "", nil
		}
		l.Error("reset request failed", "reason", "store", "error", err)
		return "", fmt.Errorf("lookup user: %w", err)
	}

	secret, err := hash.NewSecret()
	if err != nil {
		l.Error("reset request failed", "reason", "entropy", "error", err)
		return "", fmt.Errorf("generate reset secret: %w", err)
	}

	row := models.PasswordResetToken{
		Token:     hash.Sha256Hex(secret),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	if err := s.Repo.ReplaceResetToken(ctx, &row); err != nil {
		l.Error("reset request failed", "reason", "store", "error", err)
		return "", fmt.Errorf("persist reset token: %w", err)
	}

	s.Audit.Record(ctx, "reset_requested", map[string]any{"user_id": user.ID.String()})
	l.Info("reset token issued", "user_id", user.ID.String())
	return secret, nil
}

// ResetPassword redeems a reset secret exactly once: the row is removed
// no matter how the password update itself ends.
func (s *ResetService) ResetPassword(ctx context.Context, rawSecret, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "reset.redeem")

	if rawSecret == "" {
		return ErrValidation
	}
	if len(newPassword) < minPasswordLen {
		return ErrValidation
	}

	tokenHash := hash.Sha256Hex(rawSecret)
	row, err := s.Repo.FindResetToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		l.Error("reset failed", "reason", "store", "error", err)
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if row.ExpiresAt < time.Now().Unix() {
		if err := s.Repo.DeleteResetToken(ctx, tokenHash); err != nil {
			l.Error("expired reset token purge failed", "error", err)
		}
		return ErrInvalidResetToken
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("reset failed", "reason", "password hash", "error", err)
		return fmt.Errorf("hash password: %w", err)
	}

	updateErr := s.Repo.UpdatePasswordHash(ctx, row.UserID, pwHash)

	// Redemption started, so the token is spent either way.
	if err := s.Repo.DeleteResetToken(ctx, tokenHash); err != nil {
		l.Error("reset token delete failed", "error", err)
		if updateErr == nil {
			return fmt.Errorf("delete reset token: %w", err)
		}
	}
	if updateErr != nil {
		l.Error("reset failed", "reason", "update password", "error", updateErr)
		return fmt.Errorf("update password: %w", updateErr)
	}

	if err := s.Events.Publish(ctx, row.UserID.String(), map[string]any{
		"type":    "user.password_changed",
		"user_id": row.UserID.String(),
	}); err != nil {
		l.Warn("user event publish failed", "error", err)
	}

	s.Audit.Record(ctx, "reset_redeemed", map[string]any{"user_id": row.UserID.String()})
	l.Info("password reset", "user_id", row.UserID.String())
	return nil
}
