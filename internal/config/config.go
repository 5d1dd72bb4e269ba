package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time resolves the attendance timezone
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    MongoURI       string // MongoDB connection string for the notes store
    MongoDB        string // MongoDB database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    ResetTTLMin    int    // password-reset token time-to-live in minutes
    BcryptCost     int    // bcrypt cost for password hashing
    Timezone       *time.Location // timezone the attendance day rolls over in
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        MongoURI:       must("MONGO_URI"),           // notes store connection string
        MongoDB:        must("MONGO_DB"),            // notes store database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        ResetTTLMin:    intOr("RESET_TOKEN_TTL_MIN", 30),  // TTL for password-reset tokens
        BcryptCost:     mustInt("BCRYPT_COST"),      // bcrypt cost factor
        Timezone:       timezone("APP_TIMEZONE"),    // attendance day boundary timezone
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// intOr reads an optional integer environment variable with a default.
func intOr(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}

// timezone resolves an optional IANA timezone name (e.g. "Asia/Dubai").
// The attendance day key (YYYY-MM-DD) rolls over at midnight in this
// zone; timestamps themselves are stored in UTC.  Defaults to UTC.
func timezone(key string) *time.Location {
    name := os.Getenv(key)
    if name == "" {
        return time.UTC
    }
    loc, err := time.LoadLocation(name)
    if err != nil {
        log.Fatalf("invalid timezone for %s: %q", key, name)
    }
    return loc
}
