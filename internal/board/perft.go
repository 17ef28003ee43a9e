package board

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Perft counts leaf positions at the given depth. It exercises move
// generation and make/unmake only: no transposition table, no quiescence.
func Perft(p *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// PerftDivide returns the subtree count per root move, keyed by the move
// in UCI notation.
func PerftDivide(p *Position, depth int) map[string]uint64 {
	counts := make(map[string]uint64)
	moves := p.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		counts[m.String()] = Perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return counts
}

// PerftParallel distributes the root moves across worker goroutines, each
// holding its own Position clone, and sums the subtree counts. workers <= 0
// uses one worker per CPU. The total always matches serial Perft.
func PerftParallel(p *Position, depth int, workers int) uint64 {
	if depth <= 1 {
		return Perft(p, depth)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	moves := p.GenerateLegalMoves()
	var total atomic.Uint64

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		root := p.Copy()
		g.Go(func() error {
			undo := root.MakeMove(m)
			total.Add(Perft(root, depth-1))
			root.UnmakeMove(m, undo)
			return nil
		})
	}
	g.Wait()

	return total.Load()
}
