package tsumego

import "fmt"

// Coordinate is the display position of a move. A pass has no board coordinate.
type Coordinate struct {
	X int `json:"x" bson:"x" yaml:"x"`
	Y int `json:"y" bson:"y" yaml:"y"`
}

var PassCoordinate = Coordinate{X: -1, Y: -1}

func (c Coordinate) IsPass() bool {
	return c == PassCoordinate
}

// String renders the coordinate the way go players write it, A19 being the top-left corner.
func (c Coordinate) String() string {
	if c.IsPass() {
		return "pass"
	}
	col := byte('A' + c.X)
	if col >= 'I' {
		col++
	}
	return fmt.Sprintf("%c%d", col, 19-c.Y)
}

// MoveToken identifies a move in the rules engine. Tokens index the root move list.
type MoveToken int

// CatalogEntry pairs a move token with its coordinate.
type CatalogEntry struct {
	Coordinate Coordinate
	Token      MoveToken
}

// MoveInfo describes one legal move of an analysed position.
type MoveInfo struct {
	X             int          `json:"x"`
	Y             int          `json:"y"`
	LowGain       float64      `json:"lowGain"`
	HighGain      float64      `json:"highGain"`
	LowIdeal      bool         `json:"lowIdeal"`
	HighIdeal     bool         `json:"highIdeal"`
	Forcing       bool         `json:"forcing"`
	LowPrincipal  []Coordinate `json:"lowPrincipal"`
	HighPrincipal []Coordinate `json:"highPrincipal"`
}

func (m MoveInfo) Coordinate() Coordinate {
	return Coordinate{X: m.X, Y: m.Y}
}

// AnalysisResult is the full report for a position.
type AnalysisResult struct {
	Moves         []MoveInfo   `json:"moves"`
	LowPrincipal  []Coordinate `json:"lowPrincipal"`
	HighPrincipal []Coordinate `json:"highPrincipal"`
	Low           float64      `json:"low"`
	High          float64      `json:"high"`
	ForcingMoves  []Coordinate `json:"forcingMoves"`
}
