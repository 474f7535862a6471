package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig holds operator-tunable invoicing defaults. It is reloaded
// at runtime when the config file changes.
type InvoicingConfig struct {
	DefaultPaymentTermDays int    `mapstructure:"defaultPaymentTermDays"`
	DefaultCurrency        string `mapstructure:"defaultCurrency"`
	UpgradeCheckoutURL     string `mapstructure:"upgradeCheckoutURL"`
	EmailSubjectPrefix     string `mapstructure:"emailSubjectPrefix"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		DefaultPaymentTermDays: 14,
		DefaultCurrency:        "USD",
		UpgradeCheckoutURL:     "https://buy.stripe.com/aFaeVd2ub23leHdf3p7kc03",
		EmailSubjectPrefix:     "Invoice",
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/billfold/config") // Volume-mounted config
	v.AddConfigPath("/etc/billfold")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("BILLFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultInvoicingConfig()
		v.SetDefault("invoicing.defaultPaymentTermDays", defaults.DefaultPaymentTermDays)
		v.SetDefault("invoicing.defaultCurrency", defaults.DefaultCurrency)
		v.SetDefault("invoicing.upgradeCheckoutURL", defaults.UpgradeCheckoutURL)
		v.SetDefault("invoicing.emailSubjectPrefix", defaults.EmailSubjectPrefix)
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoicing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if cfg.DefaultPaymentTermDays < 0 {
		return errors.New("invoicing.defaultPaymentTermDays cannot be negative")
	}
	if strings.TrimSpace(cfg.DefaultCurrency) == "" {
		return errors.New("invoicing.defaultCurrency cannot be empty")
	}
	return nil
}
