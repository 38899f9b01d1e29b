package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the registered seller jurisdiction and invoicing
// defaults. The seller side of every tax calculation is fixed per
// deployment; the buyer side comes from the account's billing address.
type BillingConfig struct {
	SellerState     string  `mapstructure:"sellerState"`
	SellerStateCode string  `mapstructure:"sellerStateCode"`
	SellerGSTIN     string  `mapstructure:"sellerGstin"`
	GSTRatePercent  float64 `mapstructure:"gstRatePercent"`
	DueDays         int     `mapstructure:"dueDays"`

	// Placeholder billing address synthesized for accounts without one.
	FallbackCity       string `mapstructure:"fallbackCity"`
	FallbackState      string `mapstructure:"fallbackState"`
	FallbackStateCode  string `mapstructure:"fallbackStateCode"`
	FallbackPostalCode string `mapstructure:"fallbackPostalCode"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		SellerState:        "Maharashtra",
		SellerStateCode:    "27",
		SellerGSTIN:        "27AAACC1234A1Z5",
		GSTRatePercent:     18,
		DueDays:            30,
		FallbackCity:       "Mumbai",
		FallbackState:      "Maharashtra",
		FallbackStateCode:  "27",
		FallbackPostalCode: "400001",
	}
}

// BillingConfigHolder serves the current billing config and hot-reloads it
// when the mounted config file changes.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/cloudkhata/config")
	v.AddConfigPath("/etc/cloudkhata")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLOUDKHATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.sellerState", defaults.SellerState)
	v.SetDefault("billing.sellerStateCode", defaults.SellerStateCode)
	v.SetDefault("billing.sellerGstin", defaults.SellerGSTIN)
	v.SetDefault("billing.gstRatePercent", defaults.GSTRatePercent)
	v.SetDefault("billing.dueDays", defaults.DueDays)
	v.SetDefault("billing.fallbackCity", defaults.FallbackCity)
	v.SetDefault("billing.fallbackState", defaults.FallbackState)
	v.SetDefault("billing.fallbackStateCode", defaults.FallbackStateCode)
	v.SetDefault("billing.fallbackPostalCode", defaults.FallbackPostalCode)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// NewStaticBillingConfigHolder returns a holder pinned to cfg. Test helper.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if strings.TrimSpace(cfg.SellerState) == "" {
		return errors.New("billing.sellerState cannot be empty")
	}
	if cfg.GSTRatePercent <= 0 || cfg.GSTRatePercent > 100 {
		return errors.New("billing.gstRatePercent out of range")
	}
	if cfg.DueDays <= 0 {
		return errors.New("billing.dueDays must be positive")
	}
	return nil
}
