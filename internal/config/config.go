// Package config resolves the engine configuration from command-line
// flags with ENGINE_* environment variable fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Config is the resolved engine configuration.
type Config struct {
	LogFile      string
	LogLevel     string
	UseBook      bool
	BookFile     string
	MaxBookDepth int
	HashSizeMB   int
	RunPerft     bool
	PerftDepth   int
	PerftFEN     string
}

// Defaults mirrored by the flag registrations below.
const (
	DefaultLogFile      = "./natto.log"
	DefaultLogLevel     = "info"
	DefaultMaxBookDepth = 10
	DefaultHashSizeMB   = 256
)

// Load parses the command line, falling back to ENGINE_* environment
// variables, and validates the result.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("natto", flag.ContinueOnError)

	cfg := &Config{}
	fs.StringVar(&cfg.LogFile, "log-file", envOr("ENGINE_LOG_FILE", DefaultLogFile),
		"full path to the log file")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("ENGINE_LOG_LEVEL", DefaultLogLevel),
		"log level: trace, debug, info, warn, error")
	fs.BoolVar(&cfg.UseBook, "use-book", envBoolOr("ENGINE_USE_BOOK", false),
		"consult the opening book before searching")
	fs.StringVar(&cfg.BookFile, "book-file", envOr("ENGINE_BOOK_FILE", ""),
		"path to the opening book database directory")
	fs.IntVar(&cfg.MaxBookDepth, "max-book-depth", envIntOr("ENGINE_MAX_BOOK_DEPTH", DefaultMaxBookDepth),
		"maximum fullmove number at which the book is consulted")
	fs.IntVar(&cfg.HashSizeMB, "hash-size", envIntOr("ENGINE_HASH_SIZE", DefaultHashSizeMB),
		"transposition table size in MB, must be a power of two")
	fs.BoolVar(&cfg.RunPerft, "perft", false,
		"run a perft count instead of the UCI loop")
	fs.IntVar(&cfg.PerftDepth, "perft-depth", 6, "perft depth")
	fs.StringVar(&cfg.PerftFEN, "perft-fen", "", "perft position, startpos when empty")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HashSizeMB <= 0 || !IsPowerOfTwo(c.HashSizeMB) {
		return fmt.Errorf("hash size %d is not a power of two", c.HashSizeMB)
	}
	if c.MaxBookDepth < 1 {
		return fmt.Errorf("max book depth %d must be at least 1", c.MaxBookDepth)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envIntOr(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
