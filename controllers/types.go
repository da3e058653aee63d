package controllers

import "time"

// Config holds controller configuration
type Config struct {
	ContextTimeout time.Duration
	// StorageDir receives uploads queued for asynchronous import.
	StorageDir string
}

// Default configuration values
const (
	DefaultContextTimeout = 2 * time.Minute
	DefaultStorageDir     = "./data/plan_uploads"
)

func (c Config) withDefaults() Config {
	if c.ContextTimeout <= 0 {
		c.ContextTimeout = DefaultContextTimeout
	}
	if c.StorageDir == "" {
		c.StorageDir = DefaultStorageDir
	}
	return c
}
