package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/cryptox"
	"github.com/elxora/elxora/pkg/genai"
	"github.com/elxora/elxora/pkg/slogx"
)

const apiKeySetting = "genai_api_key"

// ErrInvalidAPIKeyShape is returned when a key fails the provider shape check.
var ErrInvalidAPIKeyShape = errors.New("that does not look like a valid API key")

// SettingsService stores the completion-service credential and other
// profile-level settings.
type SettingsService struct {
	Store store.Store
}

// SetAPIKey shape-checks and stores the completion credential. The key never
// appears in logs; only its fingerprint does.
func (s *SettingsService) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if !genai.ValidAPIKey(key) {
		return ErrInvalidAPIKeyShape
	}

	if err := s.Store.Settings().PutSetting(ctx, apiKeySetting, key); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("completion API key updated",
		slog.String("key_fingerprint", cryptox.FingerprintToken(key)),
	)
	return nil
}

// APIKey returns the stored credential, or store.ErrNotFound when none is set.
func (s *SettingsService) APIKey(ctx context.Context) (string, error) {
	return s.Store.Settings().GetSetting(ctx, apiKeySetting)
}

// ClearAPIKey removes the stored credential.
func (s *SettingsService) ClearAPIKey(ctx context.Context) error {
	return s.Store.Settings().DeleteSetting(ctx, apiKeySetting)
}
