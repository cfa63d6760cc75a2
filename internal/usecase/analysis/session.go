package analysis

import (
	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// RulesEngine applies a move to a position. Illegal moves return tsumego.Illegal and are not errors.
type RulesEngine interface {
	Apply(position tsumego.Position, token tsumego.MoveToken) (tsumego.ResultCode, tsumego.Position, error)
}

// ValueStore returns the solved dual bound of a reachable position.
type ValueStore interface {
	ValueOf(position tsumego.Position) (tsumego.DualBound, error)
}

// ScoringService scores terminal results and reinterprets stored child values from the parent's side.
type ScoringService interface {
	ScoreTerminal(result tsumego.ResultCode, position tsumego.Position) (tsumego.Bound, error)
	ApplyTactics(tactics tsumego.Tactics, result tsumego.ResultCode, position tsumego.Position, raw tsumego.Bound) (tsumego.Bound, error)
}

// MoveEnumerator lists the candidate moves of a session root in a fixed order.
type MoveEnumerator interface {
	RootMoves(root tsumego.Position) ([]tsumego.CatalogEntry, error)
}

// Graph is a solved game graph that provides every collaborator of a session.
type Graph interface {
	RulesEngine
	ValueStore
	ScoringService
	MoveEnumerator
	Root() tsumego.Position
}

// Session is everything needed to analyse positions reachable from one root.
// It is never modified after construction and is safe for concurrent use.
type Session struct {
	root    tsumego.Position
	catalog *Catalog
	rules   RulesEngine
	values  ValueStore
	scoring ScoringService
}

func NewSession(root tsumego.Position, enumerator MoveEnumerator, rules RulesEngine, values ValueStore, scoring ScoringService) (*Session, error) {
	if rules == nil || values == nil || scoring == nil {
		return nil, errors.ErrSessionNotInitialized
	}
	catalog, err := NewCatalog(root, enumerator)
	if err != nil {
		return nil, err
	}
	return &Session{
		root:    root,
		catalog: catalog,
		rules:   rules,
		values:  values,
		scoring: scoring,
	}, nil
}

func NewGraphSession(g Graph) (*Session, error) {
	if g == nil {
		return nil, errors.ErrSessionNotInitialized
	}
	return NewSession(g.Root(), g, g, g, g)
}

func (s *Session) Root() tsumego.Position {
	return s.root
}

func (s *Session) Wide() bool {
	return s.root.Wide
}

func (s *Session) Catalog() *Catalog {
	return s.catalog
}
