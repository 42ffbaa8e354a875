package config

import (
	"fmt"
	"strconv"
	"strings"
)

var byteSuffixes = []struct {
	suffix string
	factor uint64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ResolveCircuitBreakerBytes parses CircuitBreakerLimit as either a
// percentage of totalAvailable ("80%") or an absolute byte size with a
// binary suffix ("4GB", "512MB"), per spec §6 ("string percentage or
// byte size; cache budget").
func (c ClusterSettings) ResolveCircuitBreakerBytes(totalAvailable uint64) (uint64, error) {
	limit := strings.TrimSpace(c.CircuitBreakerLimit)
	if limit == "" {
		return 0, fmt.Errorf("config: circuit_breaker_limit is empty")
	}

	if strings.HasSuffix(limit, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(limit, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("config: invalid circuit_breaker_limit percentage %q: %w", limit, err)
		}
		if pct < 0 || pct > 100 {
			return 0, fmt.Errorf("config: circuit_breaker_limit percentage %q out of [0,100]", limit)
		}
		return uint64(pct / 100 * float64(totalAvailable)), nil
	}

	upper := strings.ToUpper(limit)
	for _, s := range byteSuffixes {
		if strings.HasSuffix(upper, s.suffix) {
			numeric := strings.TrimSpace(upper[:len(upper)-len(s.suffix)])
			value, err := strconv.ParseFloat(numeric, 64)
			if err != nil {
				return 0, fmt.Errorf("config: invalid circuit_breaker_limit size %q: %w", limit, err)
			}
			if value < 0 {
				return 0, fmt.Errorf("config: circuit_breaker_limit size %q is negative", limit)
			}
			return uint64(value * float64(s.factor)), nil
		}
	}

	return 0, fmt.Errorf("config: circuit_breaker_limit %q has no recognized suffix (%%, B, KB, MB, GB, TB)", limit)
}
