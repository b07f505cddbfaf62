package config

type Config interface {
	EnvConfig
	ProviderConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetDatabaseDSN() string
	GetDevicePlatformID() string
	GetDeviceModel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Providers
	Security
}

func New() Config {
	return mainConfig{}
}
