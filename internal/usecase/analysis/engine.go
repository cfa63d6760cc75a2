package analysis

import (
	"fmt"
	"math"

	"tsumego_exe/internal/domain/tsumego"
)

type side int

const (
	lowSide side = iota
	highSide
)

// childEval is one legal move of a node together with the value of the position it leads to,
// seen from the node's side.
type childEval struct {
	entry  tsumego.CatalogEntry
	result tsumego.ResultCode
	child  tsumego.Position
	value  tsumego.DualBound

	lowGain   float64
	highGain  float64
	lowIdeal  bool
	highIdeal bool
	forcing   bool
}

// principalStep is a link of a principal variation. A nil step is the empty line.
type principalStep struct {
	coordinate tsumego.Coordinate
	next       *principalStep
}

func (p *principalStep) collapse() []tsumego.Coordinate {
	line := make([]tsumego.Coordinate, 0)
	for step := p; step != nil; step = step.next {
		line = append(line, step.coordinate)
	}
	return line
}

type nodeAnalysis struct {
	value         tsumego.DualBound
	children      []childEval
	lowPrincipal  *principalStep
	highPrincipal *principalStep
}

// evaluateNode classifies every legal move of position. Only the requested sides get a
// principal variation, and each continues through a single child, so a line costs one
// evaluation per ply instead of a walk over the whole subtree.
func (s *Session) evaluateNode(position tsumego.Position, needLow, needHigh bool) (*nodeAnalysis, error) {
	value, err := s.values.ValueOf(position)
	if err != nil {
		return nil, fmt.Errorf("value of %s: %w", position.HexKey(), err)
	}

	node := &nodeAnalysis{
		value:    value,
		children: make([]childEval, 0, s.catalog.Len()),
	}
	for _, entry := range s.catalog.Entries() {
		result, child, err := s.rules.Apply(position, entry.Token)
		if err != nil {
			return nil, fmt.Errorf("apply %s to %s: %w", entry.Coordinate, position.HexKey(), err)
		}
		if result == tsumego.Illegal {
			continue
		}
		childValue, err := s.childValue(result, child)
		if err != nil {
			return nil, fmt.Errorf("move %s: %w", entry.Coordinate, err)
		}
		node.children = append(node.children, childEval{
			entry:  entry,
			result: result,
			child:  child,
			value:  childValue,
		})
	}

	plain := node.value.Plain
	bestLow := math.Inf(-1)
	bestHigh := math.Inf(-1)
	for _, c := range node.children {
		if plain.Low == c.value.Plain.High {
			bestLow = math.Max(bestLow, c.value.Plain.Low)
		}
		if plain.High == c.value.Plain.Low {
			bestHigh = math.Max(bestHigh, c.value.Plain.High)
		}
	}

	lowIdx, highIdx := -1, -1
	for i := range node.children {
		c := &node.children[i]
		c.lowGain = c.value.Plain.High - plain.Low
		c.highGain = c.value.Plain.Low - plain.High
		c.lowIdeal = plain.Low == c.value.Plain.High && c.value.Plain.Low == bestLow
		c.highIdeal = plain.High == c.value.Plain.Low && c.value.Plain.High == bestHigh
		c.forcing = node.value.Forcing.Low == c.value.Forcing.High
		if c.lowIdeal && lowIdx < 0 {
			lowIdx = i
		}
		if c.highIdeal && highIdx < 0 {
			highIdx = i
		}
	}

	if needLow && lowIdx >= 0 {
		if node.lowPrincipal, err = s.principal(node.children[lowIdx], lowSide); err != nil {
			return nil, err
		}
	}
	if needHigh && highIdx >= 0 {
		if node.highPrincipal, err = s.principal(node.children[highIdx], highSide); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// childValue computes the value of a child from the parent's side.
// Terminal children are leaves: their score is definite and the same under any tactics.
func (s *Session) childValue(result tsumego.ResultCode, child tsumego.Position) (tsumego.DualBound, error) {
	if result.Terminal() {
		score, err := s.scoring.ScoreTerminal(result, child)
		if err != nil {
			return tsumego.DualBound{}, fmt.Errorf("score %s: %w", result, err)
		}
		return tsumego.DualBound{Plain: score, Forcing: score}, nil
	}

	stored, err := s.values.ValueOf(child)
	if err != nil {
		return tsumego.DualBound{}, fmt.Errorf("value of %s: %w", child.HexKey(), err)
	}
	plain, err := s.scoring.ApplyTactics(tsumego.TacticsNone, result, child, stored.Plain)
	if err != nil {
		return tsumego.DualBound{}, err
	}
	forcing, err := s.scoring.ApplyTactics(tsumego.TacticsForcing, result, child, stored.Forcing)
	if err != nil {
		return tsumego.DualBound{}, err
	}
	return tsumego.DualBound{Plain: plain, Forcing: forcing}, nil
}

// principal starts a line with c and continues it from the opponent's opposite side.
func (s *Session) principal(c childEval, from side) (*principalStep, error) {
	step := &principalStep{coordinate: c.entry.Coordinate}
	if c.result.Terminal() {
		return step, nil
	}
	if from == lowSide {
		next, err := s.evaluateNode(c.child, false, true)
		if err != nil {
			return nil, err
		}
		step.next = next.highPrincipal
	} else {
		next, err := s.evaluateNode(c.child, true, false)
		if err != nil {
			return nil, err
		}
		step.next = next.lowPrincipal
	}
	return step, nil
}
