// Package api provides the HTTP API server for generating, refining and
// inspecting screens.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
