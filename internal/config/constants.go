package config

// Default locations for local state
const (
	// DefaultBackendURL points the backend at a local SQLite file
	DefaultBackendURL = "sqlite://./quested.db"

	// DefaultSessionDBPath is the SQLite file backing browser sessions
	DefaultSessionDBPath = "./quested-sessions.db"

	// DefaultSiteURL is the public origin of the web UI
	DefaultSiteURL = "http://localhost:3000"
)
