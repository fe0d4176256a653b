package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Reservation settings are
// the site configuration of the stock ledger: whether adding a line
// holds stock at all and for how long a hold lives.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port for the health and availability endpoints
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	ReservationsEnabled  bool          // whether checkout lines reserve stock
	ReservationDuration  time.Duration // lifetime of a new hold
	SweepInterval        time.Duration // how often expired holds are purged
	AvailabilityCacheTTL time.Duration // TTL of cached availability estimates
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message;
// reservation settings fall back to sensible defaults.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		ReservationsEnabled:  envBool("RESERVATIONS_ENABLED", true),
		ReservationDuration:  envDur("RESERVATION_DURATION", 10*time.Minute),
		SweepInterval:        envDur("RESERVATION_SWEEP_INTERVAL", time.Minute),
		AvailabilityCacheTTL: envDur("AVAILABILITY_CACHE_TTL", 30*time.Second),
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}
