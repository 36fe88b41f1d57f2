package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv          = "PHARMGATE_APP_ENV"
	EnvPort            = "PHARMGATE_APP_PORT"
	EnvUpstreamBaseURL = "PHARMGATE_UPSTREAM_BASE_URL"
	EnvRedisURL        = "PHARMGATE_REDIS_URL"
	EnvLocalStorePath  = "PHARMGATE_LOCALSTORE_PATH"
)
