package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types

    "github.com/joho/godotenv" // godotenv loads a .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and numeric ids.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    BotToken      string // Telegram bot token used for all outward API calls
    ForumID       int64  // chat id of the shared forum group holding the topics
    WebhookSecret string // path secret guarding the webhook endpoint
    JWTSecret     string // secret used to sign admin JWTs
    AccessTTLMin  int    // admin access token time-to-live in minutes
    AdminUser     string // admin login name
    AdminPassHash string // bcrypt hash of the admin password
    GreetingStart string // reply sent to /start in private chats
    GreetingHelp  string // reply sent to /help in private chats
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present, mirroring local development setups.  Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
    _ = godotenv.Load() // absence of a .env file is fine in production

    return Config{
        Env:           must("APP_ENV"),              // environment (dev/test/prod)
        Port:          must("APP_PORT"),             // port to bind the HTTP server
        DBUser:        must("DB_USER"),              // database user
        DBPass:        os.Getenv("DB_PASS"),         // database password (empty allowed)
        DBHost:        must("DB_HOST"),              // database host
        DBPort:        must("DB_PORT"),              // database port
        DBName:        must("DB_NAME"),              // database name
        BotToken:      must("BOT_TOKEN"),            // Telegram bot token
        ForumID:       mustInt64("FORUM_ID"),        // forum group chat id
        WebhookSecret: must("WEBHOOK_SECRET"),       // webhook path secret
        JWTSecret:     must("JWT_SECRET"),           // secret used for signing JWTs
        AccessTTLMin:  mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for admin tokens in minutes
        AdminUser:     must("ADMIN_USER"),           // admin login
        AdminPassHash: must("ADMIN_PASS_HASH"),      // bcrypt hash of the admin password
        GreetingStart: must("START_COMMAND"),        // greeting for /start
        GreetingHelp:  must("HELP_COMMAND"),         // greeting for /help
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

// mustInt64 is like mustInt but for 64-bit values such as chat ids,
// which exceed 32 bits for Telegram supergroups.
func mustInt64(key string) int64 {
    s := must(key)
    n, err := strconv.ParseInt(s, 10, 64)
    if err != nil {
        log.Fatalf("invalid int64 for %s: %q", key, s)
    }
    return n
}
