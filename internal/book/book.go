// Package book implements the opening book: a persistent map from
// position hash to a recommended move, stored in BadgerDB. To the engine
// the book is opaque; it probes with a hash and gets back a move.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/rglenister/natto/internal/board"
)

// Book is a Badger-backed opening book keyed by Polyglot position hash.
type Book struct {
	db *badger.DB
}

// Open opens or creates a book database at the given directory.
func Open(dir string) (*Book, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open book at %s: %w", dir, err)
	}
	return &Book{db: db}, nil
}

// OpenInMemory opens a transient book, used by tests and imports that
// never touch disk.
func OpenInMemory() (*Book, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Book{db: db}, nil
}

// Close closes the underlying database.
func (b *Book) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Probe returns the stored move for a position hash in UCI notation.
func (b *Book) Probe(hash uint64) (string, bool) {
	if b == nil || b.db == nil {
		return "", false
	}
	var move string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bookKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			move = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return move, true
}

// Put stores a move for a position hash.
func (b *Book) Put(hash uint64, move string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bookKey(hash), []byte(move))
	})
}

// Len returns the number of positions in the book.
func (b *Book) Len() int {
	if b == nil || b.db == nil {
		return 0
	}
	count := 0
	b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

func bookKey(hash uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], hash)
	return key[:]
}

// ImportPolyglot loads a Polyglot book file into the database, keeping the
// highest-weighted move per position. Files ending in .zst are
// decompressed on the fly. Returns the number of positions imported.
func (b *Book) ImportPolyglot(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("open compressed book %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	return b.importPolyglotReader(r)
}

func (b *Book) importPolyglotReader(r io.Reader) (int, error) {
	// Polyglot entry: key u64, move u16, weight u16, learn u32, big-endian.
	best := make(map[uint64]struct {
		move   string
		weight uint16
	})

	var entry [16]byte
	for {
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read book entry: %w", err)
		}
		key := binary.BigEndian.Uint64(entry[0:8])
		moveData := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		move := decodePolyglotMove(moveData)
		if move == "" {
			continue
		}
		if cur, ok := best[key]; !ok || weight > cur.weight {
			best[key] = struct {
				move   string
				weight uint16
			}{move, weight}
		}
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for key, e := range best {
		if err := wb.Set(bookKey(key), []byte(e.move)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(best), nil
}

// decodePolyglotMove converts a Polyglot move word into UCI notation.
// Polyglot encodes castling as king-captures-rook; that is rewritten to
// the king's two-square move.
func decodePolyglotMove(data uint16) string {
	toFile := int(data & 7)
	toRank := int((data >> 3) & 7)
	fromFile := int((data >> 6) & 7)
	fromRank := int((data >> 9) & 7)
	promo := int((data >> 12) & 7)

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	switch {
	case from == board.E1 && to == board.H1:
		to = board.G1
	case from == board.E1 && to == board.A1:
		to = board.C1
	case from == board.E8 && to == board.H8:
		to = board.G8
	case from == board.E8 && to == board.A8:
		to = board.C8
	}

	s := from.String() + to.String()
	if promo > 0 && promo <= 4 {
		s += string("nbrq"[promo-1])
	}
	return s
}
