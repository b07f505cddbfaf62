package config

type ProviderConfig interface {
	GetSnapchatClientID() string
	GetInstagramClientID() string
}

type Providers struct{}

var _ ProviderConfig = Providers{}

func (Providers) GetSnapchatClientID() string {
	return GetEnv("SNAPCHAT_CLIENT_ID", "")
}

func (Providers) GetInstagramClientID() string {
	return GetEnv("INSTAGRAM_CLIENT_ID", "")
}
