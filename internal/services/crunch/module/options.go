package module

import (
	"logcrunch/internal/platform/config"
)

// Options holds configuration options for the crunch service
type Options struct {
	Capacity int64
	Cleanup  bool
	Prefix   string
}

// FromConfig reads the crunch options from config with CRUNCH_ prefix
func FromConfig(cfg config.Conf) Options {
	cc := cfg.Prefix("CRUNCH_")
	return Options{
		Capacity: int64(cc.MayInt("CAPACITY", 4)),
		Cleanup:  cc.MayBool("CLEANUP", false),
		Prefix:   cc.MayString("PREFIX", ""),
	}
}
