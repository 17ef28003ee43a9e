package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rglenister/natto/internal/board"
	"github.com/rglenister/natto/internal/book"
	"github.com/rglenister/natto/internal/config"
	"github.com/rglenister/natto/internal/engine"
	"github.com/rglenister/natto/internal/logx"
	"github.com/rglenister/natto/internal/uci"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "natto: %v\n", err)
		os.Exit(2)
	}

	logger, err := logx.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "natto: %v\n", err)
		os.Exit(2)
	}
	logger.Info().Str("log_level", cfg.LogLevel).Int("hash_mb", cfg.HashSizeMB).Msg("engine started")

	if cfg.RunPerft {
		runPerft(cfg)
		return
	}

	var openingBook *book.Book
	if cfg.UseBook && cfg.BookFile != "" {
		openingBook, err = book.Open(cfg.BookFile)
		if err != nil {
			logger.Warn().Err(err).Msg("opening book unavailable")
			openingBook = nil
		} else {
			defer openingBook.Close()
			logger.Info().Int("positions", openingBook.Len()).Msg("opening book loaded")
		}
	}

	eng := engine.New(cfg.HashSizeMB)

	handler := uci.New(uci.Options{
		Engine:    eng,
		Book:      openingBook,
		Log:       logger,
		HashMB:    cfg.HashSizeMB,
		OwnBook:   cfg.UseBook,
		BookDepth: cfg.MaxBookDepth,
		LogPath:   cfg.LogFile,
		LogLevel:  cfg.LogLevel,
	})
	handler.Run(os.Stdin)

	logger.Info().Msg("engine exited")
}

func runPerft(cfg *config.Config) {
	pos := board.NewPosition()
	if cfg.PerftFEN != "" {
		var err error
		pos, err = board.ParseFEN(cfg.PerftFEN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "natto: %v\n", err)
			os.Exit(2)
		}
	}

	start := time.Now()
	nodes := board.PerftParallel(pos, cfg.PerftDepth, 0)
	elapsed := time.Since(start)

	fmt.Printf("perft(%d) = %d\n", cfg.PerftDepth, nodes)
	fmt.Printf("time %v", elapsed)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf("  nps %s", formatNPS(float64(nodes)/secs))
	}
	fmt.Println()
}

func formatNPS(nps float64) string {
	switch {
	case nps >= 1e6:
		return fmt.Sprintf("%.1fM", nps/1e6)
	case nps >= 1e3:
		return fmt.Sprintf("%.1fK", nps/1e3)
	default:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", nps), ".0")
	}
}
