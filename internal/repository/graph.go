package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// GraphFile is the solver's export of a solved game graph.
// Edges and nodes refer to each other by index into Nodes.
type GraphFile struct {
	Slug  string               `json:"slug"`
	Wide  bool                 `json:"wide"`
	Root  int                  `json:"root"`
	Moves []tsumego.Coordinate `json:"moves"`
	Nodes []GraphFileNode      `json:"nodes"`
}

type GraphFileNode struct {
	State tsumego.PositionJSON `json:"state"`
	// Value is absent for positions that only occur as terminal results.
	Value *tsumego.DualBound `json:"value,omitempty"`
	Edges []GraphFileEdge    `json:"edges,omitempty"`
}

type GraphFileEdge struct {
	Move   int                `json:"move"`
	Result tsumego.ResultCode `json:"result"`
	Child  int                `json:"child"`
	// Score is required when Result is terminal.
	Score *float64 `json:"score,omitempty"`
}

type graphEdge struct {
	result tsumego.ResultCode
	child  tsumego.Position
}

type graphNode struct {
	value  tsumego.DualBound
	solved bool
	edges  map[tsumego.MoveToken]graphEdge
}

type terminalKey struct {
	result   tsumego.ResultCode
	position tsumego.Position
}

// SolvedGraph is a read-only, fully converged game graph held in memory.
// It serves as rules engine, value store and scoring service for analysis sessions.
type SolvedGraph struct {
	slug      string
	root      tsumego.Position
	moves     []tsumego.Coordinate
	nodes     map[tsumego.Position]*graphNode
	terminals map[terminalKey]float64
}

func newSolvedGraph(slug string, root tsumego.Position, moves []tsumego.Coordinate) *SolvedGraph {
	return &SolvedGraph{
		slug:      slug,
		root:      root,
		moves:     moves,
		nodes:     make(map[tsumego.Position]*graphNode),
		terminals: make(map[terminalKey]float64),
	}
}

// LoadGraphFile reads a solved graph export. The slug defaults to the file name.
func LoadGraphFile(path string) (*SolvedGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file GraphFile
	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrMalformedGraph, path, err)
	}
	if file.Slug == "" {
		file.Slug = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return BuildSolvedGraph(file)
}

// BuildSolvedGraph validates a graph export and indexes it by position.
func BuildSolvedGraph(file GraphFile) (*SolvedGraph, error) {
	if file.Root < 0 || file.Root >= len(file.Nodes) {
		return nil, fmt.Errorf("%w: root index %d out of range", errors.ErrMalformedGraph, file.Root)
	}
	if len(file.Moves) == 0 {
		return nil, fmt.Errorf("%w: no moves", errors.ErrMalformedGraph)
	}

	positions := make([]tsumego.Position, len(file.Nodes))
	for i, n := range file.Nodes {
		positions[i] = n.State.Decode(file.Wide)
	}

	g := newSolvedGraph(file.Slug, positions[file.Root], file.Moves)
	for i, n := range file.Nodes {
		if _, dup := g.nodes[positions[i]]; dup {
			return nil, fmt.Errorf("%w: node %d duplicates an earlier position", errors.ErrMalformedGraph, i)
		}
		node := &graphNode{edges: make(map[tsumego.MoveToken]graphEdge, len(n.Edges))}
		if n.Value != nil {
			node.value = *n.Value
			node.solved = true
		}
		g.nodes[positions[i]] = node
	}
	if !g.nodes[g.root].solved {
		return nil, fmt.Errorf("%w: root has no value", errors.ErrMalformedGraph)
	}

	for i, n := range file.Nodes {
		node := g.nodes[positions[i]]
		for _, e := range n.Edges {
			if e.Move < 0 || e.Move >= len(file.Moves) {
				return nil, fmt.Errorf("%w: node %d: move %d out of range", errors.ErrMalformedGraph, i, e.Move)
			}
			if e.Child < 0 || e.Child >= len(file.Nodes) {
				return nil, fmt.Errorf("%w: node %d: child %d out of range", errors.ErrMalformedGraph, i, e.Child)
			}
			if e.Result == tsumego.Illegal {
				continue
			}
			child := positions[e.Child]
			if e.Result.Terminal() {
				if e.Score == nil {
					return nil, fmt.Errorf("%w: node %d: terminal edge without score", errors.ErrMalformedGraph, i)
				}
				if err := g.addTerminal(e.Result, child, *e.Score); err != nil {
					return nil, err
				}
			} else if !g.nodes[child].solved {
				return nil, fmt.Errorf("%w: node %d: child %d has no value", errors.ErrMalformedGraph, i, e.Child)
			}
			node.edges[tsumego.MoveToken(e.Move)] = graphEdge{result: e.Result, child: child}
		}
	}
	return g, nil
}

func (g *SolvedGraph) addTerminal(result tsumego.ResultCode, position tsumego.Position, score float64) error {
	key := terminalKey{result: result, position: position}
	if prev, ok := g.terminals[key]; ok && prev != score {
		return fmt.Errorf("%w: conflicting %s scores %v and %v", errors.ErrMalformedGraph, result, prev, score)
	}
	g.terminals[key] = score
	return nil
}

func (g *SolvedGraph) Slug() string {
	return g.slug
}

func (g *SolvedGraph) Root() tsumego.Position {
	return g.root
}

func (g *SolvedGraph) NumPositions() int {
	return len(g.nodes)
}

// RootMoves lists every move of the root in token order.
func (g *SolvedGraph) RootMoves(root tsumego.Position) ([]tsumego.CatalogEntry, error) {
	if root != g.root {
		return nil, fmt.Errorf("%w: not the root of %s", errors.ErrPositionNotFound, g.slug)
	}
	entries := make([]tsumego.CatalogEntry, len(g.moves))
	for i, c := range g.moves {
		entries[i] = tsumego.CatalogEntry{Coordinate: c, Token: tsumego.MoveToken(i)}
	}
	return entries, nil
}

// Apply follows the recorded edge. A move without an edge is illegal.
func (g *SolvedGraph) Apply(position tsumego.Position, token tsumego.MoveToken) (tsumego.ResultCode, tsumego.Position, error) {
	node, ok := g.nodes[position]
	if !ok {
		return tsumego.Illegal, position, errors.ErrPositionNotFound
	}
	edge, ok := node.edges[token]
	if !ok {
		return tsumego.Illegal, position, nil
	}
	return edge.result, edge.child, nil
}

func (g *SolvedGraph) ValueOf(position tsumego.Position) (tsumego.DualBound, error) {
	node, ok := g.nodes[position]
	if !ok || !node.solved {
		return tsumego.DualBound{}, errors.ErrValueNotFound
	}
	return node.value, nil
}

func (g *SolvedGraph) ScoreTerminal(result tsumego.ResultCode, position tsumego.Position) (tsumego.Bound, error) {
	score, ok := g.terminals[terminalKey{result: result, position: position}]
	if !ok {
		return tsumego.Bound{}, errors.ErrTerminalNotScored
	}
	return tsumego.Exact(score), nil
}

// ApplyTactics turns a child's stored value into the parent's point of view.
// The solver keeps the ends paired (parent low = max child high), so the ends are negated in place.
func (g *SolvedGraph) ApplyTactics(tactics tsumego.Tactics, result tsumego.ResultCode, position tsumego.Position, raw tsumego.Bound) (tsumego.Bound, error) {
	switch tactics {
	case tsumego.TacticsNone, tsumego.TacticsForcing:
		return tsumego.Bound{Low: negate(raw.Low), High: negate(raw.High)}, nil
	case tsumego.TacticsDelay:
		return tsumego.Bound{
			Low:  negate(tsumego.DelayCapture(raw.Low)),
			High: negate(tsumego.DelayCapture(raw.High)),
		}, nil
	}
	return tsumego.Bound{}, fmt.Errorf("unsupported tactics %s", tactics)
}

// negate never produces negative zero, which would leak into reports as -0.
func negate(v float64) float64 {
	return 0 - v
}
