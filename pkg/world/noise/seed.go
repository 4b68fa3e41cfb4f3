package noise

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ParseSeed turns a user supplied seed into an int64. Integers are used as
// is; any other string is hashed.
func ParseSeed(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return int64(xxhash.Sum64String(s))
}

// Derive returns a stable sub-seed of seed for the named purpose, so each
// field of a world gets its own stream.
func Derive(seed int64, salt string) int64 {
	d := xxhash.New()
	d.WriteString(strconv.FormatInt(seed, 10))
	d.WriteString("/")
	d.WriteString(salt)
	return int64(d.Sum64())
}
