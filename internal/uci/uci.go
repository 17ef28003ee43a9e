// Package uci implements the Universal Chess Interface line protocol: a
// stateless translator between UCI text lines and engine commands.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rglenister/natto/internal/board"
	"github.com/rglenister/natto/internal/book"
	"github.com/rglenister/natto/internal/config"
	"github.com/rglenister/natto/internal/engine"
	"github.com/rglenister/natto/internal/logx"
)

// UCI dispatches protocol lines to the engine. The input loop stays
// responsive while a search runs in its own goroutine; bestmove follows
// every accepted go exactly once. A go received while a search is still
// running is ignored and gets no bestmove of its own.
type UCI struct {
	engine *engine.Engine
	book   *book.Book
	log    zerolog.Logger

	out   io.Writer
	outMu sync.Mutex

	position *board.Position
	hashes   []uint64 // Zobrist keys of the game line, for repetition detection

	hashMB    int
	ownBook   bool
	bookDepth int

	logPath    string
	logLevel   string
	logEnabled bool

	searchDone chan struct{}
}

// Options configures a new UCI handler.
type Options struct {
	Engine    *engine.Engine
	Book      *book.Book
	Log       zerolog.Logger
	Out       io.Writer // defaults to os.Stdout
	HashMB    int
	OwnBook   bool
	BookDepth int
	LogPath   string
	LogLevel  string
}

// New creates a UCI handler over an engine.
func New(opts Options) *UCI {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	hashMB := opts.HashMB
	if hashMB == 0 {
		hashMB = config.DefaultHashSizeMB
	}
	bookDepth := opts.BookDepth
	if bookDepth == 0 {
		bookDepth = config.DefaultMaxBookDepth
	}
	u := &UCI{
		engine:     opts.Engine,
		book:       opts.Book,
		log:        opts.Log,
		out:        out,
		position:   board.NewPosition(),
		hashMB:     hashMB,
		ownBook:    opts.OwnBook,
		bookDepth:  bookDepth,
		logPath:    opts.LogPath,
		logLevel:   opts.LogLevel,
		logEnabled: true,
	}
	u.hashes = []uint64{u.position.Hash}
	return u
}

// Run reads UCI lines until quit or EOF. Responses preserve receive order.
func (u *UCI) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		u.log.Debug().Str("line", line).Msg("uci recv")

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.waitSearch(true)
		case "quit":
			u.waitSearch(true)
			return
		case "setoption":
			u.handleSetOption(args)
		case "d":
			u.send(u.position.String())
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Warn().Str("cmd", cmd).Msg("unknown uci command")
		}
	}
	u.waitSearch(true)
}

func (u *UCI) send(format string, a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", a...)
}

func (u *UCI) handleUCI() {
	u.send("id name natto")
	u.send("id author Richard Glenister")
	u.send("option name Hash type spin default %d min 1 max 4096", config.DefaultHashSizeMB)
	u.send("option name OwnBook type check default false")
	u.send("option name BookDepth type spin default %d min 1 max 100", config.DefaultMaxBookDepth)
	u.send("option name Clear Hash type button")
	u.send("option name EnableLog type check default true")
	u.send("option name Debug Log File type string default %s", config.DefaultLogFile)
	u.send("uciok")
}

func (u *UCI) handleNewGame() {
	u.waitSearch(true)
	u.engine.ClearTT()
	u.position = board.NewPosition()
	u.hashes = []uint64{u.position.Hash}
}

// handlePosition sets up a position from startpos or a FEN, then applies
// the given moves. An illegal move abandons the rest of the sequence but
// keeps the state reached so far.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *board.Position
	moveStart := len(args)

	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				moveStart = i + 2
				break
			}
		}
		fen := strings.Join(args[1:fenEnd], " ")
		var err error
		pos, err = board.ParseFEN(fen)
		if err != nil {
			u.log.Warn().Err(err).Msg("rejected position command")
			return
		}
	default:
		u.log.Warn().Str("arg", args[0]).Msg("malformed position command")
		return
	}

	hashes := []uint64{pos.Hash}
	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			from, to, promo, err := board.ParseUCIMove(moveStr)
			if err != nil {
				u.log.Warn().Str("move", moveStr).Msg("malformed move, abandoning sequence")
				break
			}
			m := pos.FindMove(from, to, promo)
			if m == board.NoMove {
				u.log.Warn().Str("move", moveStr).Msg("illegal move, abandoning sequence")
				break
			}
			pos.MakeMove(m)
			if pos.HalfMoveClock == 0 {
				hashes = hashes[:0]
			}
			hashes = append(hashes, pos.Hash)
		}
	}

	u.position = pos
	u.hashes = hashes
}

func (u *UCI) handleGo(args []string) {
	if u.searchDone != nil {
		select {
		case <-u.searchDone:
			u.searchDone = nil
		default:
			u.log.Warn().Msg("go while already searching")
			return
		}
	}

	limits := u.parseGoLimits(args)

	// In the opening, a book hit answers immediately and skips the search.
	if u.ownBook && u.book != nil && u.position.FullMoveNumber <= u.bookDepth {
		if moveStr, ok := u.book.Probe(u.position.PolyglotHash()); ok {
			if from, to, promo, err := board.ParseUCIMove(moveStr); err == nil {
				if m := u.position.FindMove(from, to, promo); m != board.NoMove {
					u.log.Info().Str("move", m.String()).Msg("book move")
					u.send("bestmove %s", m)
					return
				}
			}
			u.log.Warn().Str("move", moveStr).Msg("book returned illegal move")
		}
	}

	u.engine.SetGameHistory(u.hashes)
	u.engine.OnInfo = u.writeInfo

	pos := u.position.Copy()
	done := make(chan struct{})
	u.searchDone = done

	go func() {
		defer close(done)
		// An engine invariant failure must never take the process down;
		// fall back to any legal move and keep serving commands.
		defer func() {
			if r := recover(); r != nil {
				u.log.Error().Interface("panic", r).Msg("search aborted by internal error")
				if legal := pos.GenerateLegalMoves(); legal.Len() > 0 {
					u.send("bestmove %s", legal.Get(0))
				} else {
					u.send("bestmove 0000")
				}
			}
		}()
		best := u.engine.Search(pos, limits)
		u.send("bestmove %s", best)
	}()
}

// waitSearch blocks until the current search finishes; with stop it
// signals the engine first.
func (u *UCI) waitSearch(stop bool) {
	if u.searchDone == nil {
		return
	}
	if stop {
		u.engine.Stop()
	}
	<-u.searchDone
	u.searchDone = nil
}

func (u *UCI) parseGoLimits(args []string) engine.SearchLimits {
	var limits engine.SearchLimits

	ms := func(i int) time.Duration {
		if i >= len(args) {
			return 0
		}
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime":
			limits.Time[board.White] = ms(i + 1)
			i++
		case "btime":
			limits.Time[board.Black] = ms(i + 1)
			i++
		case "winc":
			limits.Inc[board.White] = ms(i + 1)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(i + 1)
			i++
		case "movestogo":
			if i+1 < len(args) {
				limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "depth":
			if i+1 < len(args) {
				limits.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				limits.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movetime":
			limits.MoveTime = ms(i + 1)
			i++
		case "infinite":
			limits.Infinite = true
		}
	}
	return limits
}

func (u *UCI) writeInfo(info engine.SearchInfo) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d", info.Depth, info.Seldepth)

	if engine.IsMateScore(info.Score) {
		fmt.Fprintf(&sb, " score mate %d", engine.MateDistance(info.Score))
	} else {
		fmt.Fprintf(&sb, " score cp %d", info.Score)
	}

	fmt.Fprintf(&sb, " nodes %d", info.Nodes)
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		fmt.Fprintf(&sb, " nps %d", nps)
	}
	fmt.Fprintf(&sb, " time %d", info.Time.Milliseconds())
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}

	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}

	u.send("%s", sb.String())
}

func (u *UCI) handleSetOption(args []string) {
	var name, value string
	mode := 0
	for _, arg := range args {
		switch arg {
		case "name":
			mode = 1
		case "value":
			mode = 2
		default:
			switch mode {
			case 1:
				if name != "" {
					name += " "
				}
				name += arg
			case 2:
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 || mb > 4096 || !config.IsPowerOfTwo(mb) {
			u.log.Warn().Str("value", value).Msg("rejected Hash: not a power of two in range")
			return
		}
		u.waitSearch(true)
		u.hashMB = mb
		u.engine.ResizeTT(mb)
	case "ownbook":
		u.ownBook = strings.EqualFold(value, "true")
	case "bookdepth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 {
			u.log.Warn().Str("value", value).Msg("rejected BookDepth")
			return
		}
		u.bookDepth = depth
	case "clear hash":
		u.waitSearch(true)
		u.engine.ClearTT()
	case "enablelog":
		u.logEnabled = strings.EqualFold(value, "true")
		u.reopenLog()
	case "debug log file":
		prev := u.logPath
		u.logPath = value
		if !u.reopenLog() {
			u.logPath = prev
			u.reopenLog()
		}
	default:
		u.log.Warn().Str("name", name).Msg("unknown option")
	}
}

// reopenLog rebuilds the logger from the current settings; reports
// whether it succeeded.
func (u *UCI) reopenLog() bool {
	if !u.logEnabled {
		u.log = u.log.Level(zerolog.Disabled)
		return true
	}
	level := u.logLevel
	if level == "" {
		level = config.DefaultLogLevel
	}
	logger, err := logx.New(u.logPath, level)
	if err != nil {
		u.log.Warn().Err(err).Msg("rejected log configuration")
		return false
	}
	u.log = logger
	return true
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	counts := board.PerftDivide(u.position.Copy(), depth)
	var total uint64
	for move, n := range counts {
		u.send("%s: %d", move, n)
		total += n
	}
	elapsed := time.Since(start)
	u.send("nodes %d time %v", total, elapsed)
}
