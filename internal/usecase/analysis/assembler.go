package analysis

import (
	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// AnalyzeState reports every legal move of position with its gains, ideal and forcing flags
// and both principal variations, plus the position's own bound and principal variations.
func AnalyzeState(s *Session, position tsumego.Position) (tsumego.AnalysisResult, error) {
	if s == nil || s.catalog == nil {
		return tsumego.AnalysisResult{}, errors.ErrSessionNotInitialized
	}

	node, err := s.evaluateNode(position, true, true)
	if err != nil {
		return tsumego.AnalysisResult{}, err
	}

	result := tsumego.AnalysisResult{
		Moves:         make([]tsumego.MoveInfo, 0, len(node.children)),
		LowPrincipal:  node.lowPrincipal.collapse(),
		HighPrincipal: node.highPrincipal.collapse(),
		Low:           node.value.Plain.Low,
		High:          node.value.Plain.High,
		ForcingMoves:  make([]tsumego.Coordinate, 0),
	}

	for _, c := range node.children {
		info := tsumego.MoveInfo{
			X:             c.entry.Coordinate.X,
			Y:             c.entry.Coordinate.Y,
			LowGain:       c.lowGain,
			HighGain:      c.highGain,
			LowIdeal:      c.lowIdeal,
			HighIdeal:     c.highIdeal,
			Forcing:       c.forcing,
			LowPrincipal:  make([]tsumego.Coordinate, 0),
			HighPrincipal: make([]tsumego.Coordinate, 0),
		}
		if !c.result.Terminal() {
			childNode, err := s.evaluateNode(c.child, true, true)
			if err != nil {
				return tsumego.AnalysisResult{}, err
			}
			info.LowPrincipal = childNode.lowPrincipal.collapse()
			info.HighPrincipal = childNode.highPrincipal.collapse()
		}
		if c.forcing {
			result.ForcingMoves = append(result.ForcingMoves, c.entry.Coordinate)
		}
		result.Moves = append(result.Moves, info)
	}

	return result, nil
}

// Analyze is AnalyzeState as a method.
func (s *Session) Analyze(position tsumego.Position) (tsumego.AnalysisResult, error) {
	return AnalyzeState(s, position)
}
