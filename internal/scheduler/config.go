package scheduler

import "time"

// Config controls scheduler cadence. Zero values fall back to the
// defaults, so an empty Config is valid.
type Config struct {
	TrackInterval  time.Duration
	SweepInterval  time.Duration
	LockTTL        time.Duration
	AccountTimeout time.Duration
	// InvoiceDay is the day of month on which the previous billing period
	// is closed into invoices.
	InvoiceDay int
}

func DefaultConfig() Config {
	return Config{
		TrackInterval:  time.Hour,
		SweepInterval:  6 * time.Hour,
		LockTTL:        5 * time.Minute,
		AccountTimeout: 2 * time.Minute,
		InvoiceDay:     1,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TrackInterval <= 0 {
		c.TrackInterval = defaults.TrackInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.AccountTimeout <= 0 {
		c.AccountTimeout = defaults.AccountTimeout
	}
	if c.InvoiceDay <= 0 || c.InvoiceDay > 28 {
		c.InvoiceDay = defaults.InvoiceDay
	}
	return c
}
