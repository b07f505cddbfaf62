package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteLoginLinks      = "/api/login-links"
	RouteDeepLinkResolve = "/api/deeplink/resolve"
	RouteDevices         = "/api/devices/{username}"
	RouteDeviceTrust     = "/api/devices/{username}/trust"
	RouteDeviceUntrust   = "/api/devices/{username}/{deviceID}"
	RouteOAuthBegin      = "/api/oauth/{provider}/begin"
)
