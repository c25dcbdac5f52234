package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	CacheConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetSessionStorageKey() string
	GetAuthCookieName() string
	GetHTTPTimeout() time.Duration
}

type CacheConfig interface {
	GetListCacheTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Client
	Cache
}

func New() Config {
	return mainConfig{}
}
