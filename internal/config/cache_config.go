package config

import "time"

const listCacheTTLVar = "LIST_CACHE_TTL_SECONDS"

// Cache holds caching configuration sourced from environment variables.
type Cache struct{}

var _ CacheConfig = Cache{}

// GetListCacheTTL returns how long a cached list page stays valid
func (Cache) GetListCacheTTL() time.Duration {
	return durationSeconds(listCacheTTLVar, 30*time.Second)
}
