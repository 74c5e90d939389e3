package config

const (
	DefaultAPIBaseURL   = "http://localhost:8000"
	DefaultAPITimeoutMS = 30000
	DefaultMePath       = "/user/me"

	DefaultCallbackAddr     = "127.0.0.1:8765"
	DefaultCallbackPath     = "/auth/callback"
	DefaultOAuthTimeoutMS   = 300000
	DefaultPollIntervalMS   = 3000
	MinPollIntervalMS       = 500
	DefaultDashboardLogRows = 20

	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultLogMaxMB = 20
)
