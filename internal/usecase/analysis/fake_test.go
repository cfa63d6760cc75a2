package analysis

import (
	"fmt"
	"sync"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

type fakeEdge struct {
	result tsumego.ResultCode
	child  tsumego.Position
}

// fakeGraph stores child values already seen from the parent. ApplyTactics returns them
// unchanged under TacticsNone, shifts them by forcingShift under TacticsForcing and refuses
// TacticsDelay, which analysis never asks for.
type fakeGraph struct {
	root         tsumego.Position
	moves        []tsumego.Coordinate
	edges        map[tsumego.Position]map[tsumego.MoveToken]fakeEdge
	values       map[tsumego.Position]tsumego.DualBound
	terminals    map[tsumego.Position]tsumego.Bound
	forcingShift float64

	mu         sync.Mutex
	applyCalls map[tsumego.Position]int
	valueCalls map[tsumego.Position]int
}

func newFakeGraph(root tsumego.Position, moves ...tsumego.Coordinate) *fakeGraph {
	return &fakeGraph{
		root:       root,
		moves:      moves,
		edges:      make(map[tsumego.Position]map[tsumego.MoveToken]fakeEdge),
		values:     make(map[tsumego.Position]tsumego.DualBound),
		terminals:  make(map[tsumego.Position]tsumego.Bound),
		applyCalls: make(map[tsumego.Position]int),
		valueCalls: make(map[tsumego.Position]int),
	}
}

func pos(id int) tsumego.Position {
	return tsumego.Position{Player: tsumego.Stones(id)}
}

func plain(low, high float64) tsumego.DualBound {
	b := tsumego.Bound{Low: low, High: high}
	return tsumego.DualBound{Plain: b, Forcing: b}
}

func (g *fakeGraph) value(p tsumego.Position, v tsumego.DualBound) *fakeGraph {
	g.values[p] = v
	return g
}

func (g *fakeGraph) edge(from tsumego.Position, token tsumego.MoveToken, result tsumego.ResultCode, to tsumego.Position) *fakeGraph {
	if g.edges[from] == nil {
		g.edges[from] = make(map[tsumego.MoveToken]fakeEdge)
	}
	g.edges[from][token] = fakeEdge{result: result, child: to}
	return g
}

func (g *fakeGraph) terminal(p tsumego.Position, score tsumego.Bound) *fakeGraph {
	g.terminals[p] = score
	return g
}

func (g *fakeGraph) shiftForcing(shift float64) *fakeGraph {
	g.forcingShift = shift
	return g
}

func (g *fakeGraph) calls(p tsumego.Position) (apply, value int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applyCalls[p], g.valueCalls[p]
}

func (g *fakeGraph) Root() tsumego.Position {
	return g.root
}

func (g *fakeGraph) RootMoves(root tsumego.Position) ([]tsumego.CatalogEntry, error) {
	entries := make([]tsumego.CatalogEntry, len(g.moves))
	for i, c := range g.moves {
		entries[i] = tsumego.CatalogEntry{Coordinate: c, Token: tsumego.MoveToken(i)}
	}
	return entries, nil
}

func (g *fakeGraph) Apply(p tsumego.Position, token tsumego.MoveToken) (tsumego.ResultCode, tsumego.Position, error) {
	g.mu.Lock()
	g.applyCalls[p]++
	g.mu.Unlock()
	e, ok := g.edges[p][token]
	if !ok {
		return tsumego.Illegal, p, nil
	}
	return e.result, e.child, nil
}

func (g *fakeGraph) ValueOf(p tsumego.Position) (tsumego.DualBound, error) {
	g.mu.Lock()
	g.valueCalls[p]++
	g.mu.Unlock()
	v, ok := g.values[p]
	if !ok {
		return tsumego.DualBound{}, errors.ErrValueNotFound
	}
	return v, nil
}

func (g *fakeGraph) ScoreTerminal(_ tsumego.ResultCode, p tsumego.Position) (tsumego.Bound, error) {
	b, ok := g.terminals[p]
	if !ok {
		return tsumego.Bound{}, errors.ErrTerminalNotScored
	}
	return b, nil
}

func (g *fakeGraph) ApplyTactics(tactics tsumego.Tactics, _ tsumego.ResultCode, _ tsumego.Position, raw tsumego.Bound) (tsumego.Bound, error) {
	switch tactics {
	case tsumego.TacticsNone:
		return raw, nil
	case tsumego.TacticsForcing:
		return tsumego.Bound{Low: raw.Low + g.forcingShift, High: raw.High + g.forcingShift}, nil
	}
	return tsumego.Bound{}, fmt.Errorf("unexpected tactics %s", tactics)
}
