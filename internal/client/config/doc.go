// Package config loads runtime configuration for the shopkeeper client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string   address:port of the AuthService gRPC endpoint
//	-t int      per-request timeout (seconds)
//
// JSON schema:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
