// Package raw reads environment configuration during process bootstrap,
// before the logger exists. It must not import the logger package
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf scopes env lookups under a key prefix such as "LOG_"
type Conf struct{ prefix string }

// New returns an unscoped Conf
func New() Conf { return Conf{} }

// Prefix narrows the Conf by appending p to the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// lookup fetches the trimmed value and reports whether it was set non-blank
func (c Conf) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(c.prefix + key))
	return v, v != ""
}

// Get returns the env value for key, or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// GetBool treats "1", "true" and "yes" as true; anything else set is false
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// GetInt parses a non-negative integer; malformed or negative values yield def
func (c Conf) GetInt(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
