// Package vamrpc provides embedded assets for the VAM-RPC presence agent.
//
// The root package exists solely to embed [config.default.json] via
// [DefaultConfigJSON]. The agent seeds the support directory with it on
// first run so the settings editor always finds a file to edit.
package vamrpc

import _ "embed"

// DefaultConfigJSON holds the raw bytes of config.default.json, embedded at
// build time. Its values mirror config.Default; the two are kept in sync by
// a test in cmd/vamrpc-agent.
//
//go:embed config.default.json
var DefaultConfigJSON []byte
