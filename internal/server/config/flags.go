package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics bind address, empty to disable
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-x int      failed attempts before lockout
//	-k int      lockout duration, minutes
//
// Duration flags are integers in minutes, converted to time.Duration.
// Unknown flags are filtered out first so other components can share os.Args.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-l", "-s", "-t", "-x", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.JWTSecretKey, "s", config.JWTSecretKey, "JWT secret key")
	fs.IntVar(&config.MaxFailedAttempts, "x", config.MaxFailedAttempts, "failed login attempts before lockout")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	lockoutDuration := fs.Int("k", int(config.LockoutDuration.Minutes()), "lockout_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations change only when the flag is given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "k":
			config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
		}
	})
}
