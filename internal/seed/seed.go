package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	"github.com/smallbiznis/billfold/internal/auth/password"
	"github.com/smallbiznis/billfold/internal/config"
	entitlementdomain "github.com/smallbiznis/billfold/internal/entitlement/domain"
	settingsdomain "github.com/smallbiznis/billfold/internal/settings/domain"
	"gorm.io/gorm"
)

// EnsureDefaultUser seeds a login for single-operator deployments. It is a
// no-op when the user already exists.
func EnsureDefaultUser(db *gorm.DB, cfg config.BootstrapConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.DefaultUserEmail))
	if email == "" {
		return errors.New("seed user email is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.DefaultUserPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: &hashed,
			Plan:         entitlementdomain.TierFree,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}

		settings := settingsdomain.UserSettings{
			UserID:      user.ID,
			DisplayName: cfg.DefaultUserName,
			Currency:    "USD",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.WithContext(ctx).Create(&settings).Error
	})
}
