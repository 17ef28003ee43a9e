package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HashSizeMB != DefaultHashSizeMB {
		t.Errorf("hash = %d, want %d", cfg.HashSizeMB, DefaultHashSizeMB)
	}
	if cfg.MaxBookDepth != DefaultMaxBookDepth {
		t.Errorf("book depth = %d, want %d", cfg.MaxBookDepth, DefaultMaxBookDepth)
	}
	if cfg.UseBook {
		t.Error("book should default to off")
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-hash-size", "128",
		"-use-book", "-book-file", "/tmp/book",
		"-max-book-depth", "12",
		"-log-level", "debug",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HashSizeMB != 128 || !cfg.UseBook || cfg.BookFile != "/tmp/book" ||
		cfg.MaxBookDepth != 12 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsNonPowerOfTwoHash(t *testing.T) {
	if _, err := Load([]string{"-hash-size", "100"}); err == nil {
		t.Error("expected an error for a 100MB hash")
	}
	if _, err := Load([]string{"-hash-size", "0"}); err == nil {
		t.Error("expected an error for a zero hash")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	if _, err := Load([]string{"-log-level", "verbose"}); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("ENGINE_HASH_SIZE", "64")
	t.Setenv("ENGINE_USE_BOOK", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HashSizeMB != 64 {
		t.Errorf("hash = %d, want 64 from env", cfg.HashSizeMB)
	}
	if !cfg.UseBook {
		t.Error("use-book should come from env")
	}
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("ENGINE_HASH_SIZE", "64")
	cfg, err := Load([]string{"-hash-size", "32"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HashSizeMB != 32 {
		t.Errorf("hash = %d, flag should beat env", cfg.HashSizeMB)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 1024} {
		if !IsPowerOfTwo(n) {
			t.Errorf("%d should be a power of two", n)
		}
	}
	for _, n := range []int{0, -4, 3, 100} {
		if IsPowerOfTwo(n) {
			t.Errorf("%d should not be a power of two", n)
		}
	}
}
