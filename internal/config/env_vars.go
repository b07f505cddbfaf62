package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	dsnEnvVar    = "DATABASE_DSN"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" || port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Zay Link Auth")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetDatabaseDSN returns the sqlite DSN holding login links and
// trusted devices. Defaults to a file inside the data folder.
func (e EnvVars) GetDatabaseDSN() string {
	return GetEnv(dsnEnvVar, filepath.Join(e.GetDataFolder(), "linkauth.db"))
}

// GetDevicePlatformID returns the stable platform identifier this
// process hashes into its device identity.
func (EnvVars) GetDevicePlatformID() string {
	return GetEnv("DEVICE_PLATFORM_ID", "")
}

func (EnvVars) GetDeviceModel() string {
	return GetEnv("DEVICE_MODEL", "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
