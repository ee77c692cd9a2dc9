package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// Runtime switches stored in the DB. Cron jobs consult them on every tick so
// flipping one takes effect without a restart.
const (
	KeyScanEnabled         = "scan.enabled"
	KeyPriceRefreshEnabled = "price_refresh.enabled"
	KeyAlertsEnabled       = "alerts.enabled"
)

var knownKeys = map[string]bool{
	KeyScanEnabled:         true,
	KeyPriceRefreshEnabled: true,
	KeyAlertsEnabled:       true,
}

var defaultDescriptions = map[string]string{
	KeyScanEnabled:         "run the scheduled arbitrage scan",
	KeyPriceRefreshEnabled: "run the scheduled price source refresh",
	KeyAlertsEnabled:       "deliver alerts for newly created opportunities",
}

type SystemSettings struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewSystemSettings(repo repository.Repository, logger *zap.Logger) *SystemSettings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemSettings{repo: repo, logger: logger}
}

// Bool reads a switch, falling back when the key is unset or unparsable.
func (s *SystemSettings) Bool(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.repo == nil {
		return fallback
	}
	setting, err := s.repo.GetSystemSettingByKey(ctx, key)
	if err != nil {
		s.logger.Warn("system setting read failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if setting == nil {
		return fallback
	}
	var value bool
	if err := json.Unmarshal(setting.Value, &value); err != nil {
		s.logger.Warn("system setting not a bool", zap.String("key", key))
		return fallback
	}
	return value
}

// SetBool writes a switch. Unknown keys are rejected so typos do not create
// silently-ignored settings.
func (s *SystemSettings) SetBool(ctx context.Context, key string, value bool, description string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("%w: settings service not initialized", engine.ErrConfiguration)
	}
	key = strings.TrimSpace(key)
	if !knownKeys[key] {
		return fmt.Errorf("%w: unknown setting %q", engine.ErrNotFound, key)
	}
	raw, _ := json.Marshal(value)
	return s.repo.UpsertSystemSetting(ctx, &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: description,
	})
}

// EnsureDefaults seeds every known switch that has no row yet, enabled.
// Existing rows keep whatever the operator set; called once at boot.
func (s *SystemSettings) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("%w: settings service not initialized", engine.ErrConfiguration)
	}
	for key := range knownKeys {
		setting, err := s.repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if setting != nil {
			continue
		}
		if err := s.SetBool(ctx, key, true, defaultDescriptions[key]); err != nil {
			return err
		}
		s.logger.Info("system setting seeded", zap.String("key", key))
	}
	return nil
}

func (s *SystemSettings) List(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	return s.repo.ListSystemSettings(ctx)
}
