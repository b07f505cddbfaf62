package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteLoginLinks, s.CreateLoginLinkHandler())
	s.RegisterRouteFunc("POST "+RouteDeepLinkResolve, s.ResolveDeepLinkHandler())

	s.RegisterRouteFunc("GET "+RouteDevices, s.ListDevicesHandler())
	s.RegisterRouteFunc("POST "+RouteDeviceTrust, s.TrustDeviceHandler())
	s.RegisterRouteFunc("DELETE "+RouteDeviceUntrust, s.UntrustDeviceHandler())

	s.RegisterRouteFunc("GET "+RouteOAuthBegin, s.BeginOAuthHandler())
}
