package tsumego

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"

	"tsumego_exe/internal/errors"
)

// Stones is a bit board. Narrow boards use rows of 9 bits, wide boards rows of 16 bits.
type Stones uint64

const (
	narrowWidth = 9
	wideWidth   = 16
)

func rowWidth(wide bool) uint {
	if wide {
		return wideWidth
	}
	return narrowWidth
}

// Position is a full snapshot of a tsumego: board plus turn, ko and pass state.
// Positions are values: applying a move always produces a new Position.
type Position struct {
	VisualArea  Stones
	LogicalArea Stones
	Player      Stones
	Opponent    Stones
	Ko          Stones
	Target      Stones
	Immortal    Stones
	External    Stones
	Passes      int
	KoThreats   int
	Button      int
	WhiteToPlay bool
	Wide        bool
}

const positionKeySize = 8*8 + 3*8 + 2

// Key is a fixed width binary encoding of every field of the position.
// Two positions have the same key iff they are equal.
func (p Position) Key() []byte {
	buf := make([]byte, 0, positionKeySize)
	for _, s := range []Stones{p.VisualArea, p.LogicalArea, p.Player, p.Opponent, p.Ko, p.Target, p.Immortal, p.External} {
		buf = binary.BigEndian.AppendUint64(buf, uint64(s))
	}
	for _, n := range []int{p.Passes, p.KoThreats, p.Button} {
		buf = binary.BigEndian.AppendUint64(buf, uint64(int64(n)))
	}
	buf = append(buf, boolByte(p.WhiteToPlay), boolByte(p.Wide))
	return buf
}

// HexKey is Key in a form usable inside redis keys and log lines.
func (p Position) HexKey() string {
	return hex.EncodeToString(p.Key())
}

// PositionFromKey is the inverse of Position.Key.
func PositionFromKey(key []byte) (Position, bool) {
	if len(key) != positionKeySize {
		return Position{}, false
	}
	var stones [8]Stones
	for i := range stones {
		stones[i] = Stones(binary.BigEndian.Uint64(key[i*8:]))
	}
	ints := key[64:]
	return Position{
		VisualArea:  stones[0],
		LogicalArea: stones[1],
		Player:      stones[2],
		Opponent:    stones[3],
		Ko:          stones[4],
		Target:      stones[5],
		Immortal:    stones[6],
		External:    stones[7],
		Passes:      int(int64(binary.BigEndian.Uint64(ints[0:]))),
		KoThreats:   int(int64(binary.BigEndian.Uint64(ints[8:]))),
		Button:      int(int64(binary.BigEndian.Uint64(ints[16:]))),
		WhiteToPlay: ints[24] == 1,
		Wide:        ints[25] == 1,
	}, true
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// CoordinateOf returns the board coordinate of a single-stone move. The empty board is a pass.
func CoordinateOf(move Stones, wide bool) Coordinate {
	if move == 0 {
		return PassCoordinate
	}
	idx := uint(bits.TrailingZeros64(uint64(move)))
	w := rowWidth(wide)
	return Coordinate{X: int(idx % w), Y: int(idx / w)}
}

// PositionJSON is the wire shape of a position. Bit boards are sliced into rows.
type PositionJSON struct {
	VisualArea  []uint64 `json:"visualArea" bson:"visual_area" yaml:"visualArea"`
	LogicalArea []uint64 `json:"logicalArea" bson:"logical_area" yaml:"logicalArea"`
	Player      []uint64 `json:"player" bson:"player" yaml:"player"`
	Opponent    []uint64 `json:"opponent" bson:"opponent" yaml:"opponent"`
	Ko          []uint64 `json:"ko" bson:"ko" yaml:"ko"`
	Target      []uint64 `json:"target" bson:"target" yaml:"target"`
	Immortal    []uint64 `json:"immortal" bson:"immortal" yaml:"immortal"`
	External    []uint64 `json:"external" bson:"external" yaml:"external"`
	Passes      int      `json:"passes" bson:"passes" yaml:"passes"`
	KoThreats   int      `json:"koThreats" bson:"ko_threats" yaml:"koThreats"`
	Button      int      `json:"button" bson:"button" yaml:"button"`
	WhiteToPlay bool     `json:"whiteToPlay" bson:"white_to_play" yaml:"whiteToPlay"`
}

// Decode builds a Position. The board width comes from the collection root, not from the client.
func (pj PositionJSON) Decode(wide bool) Position {
	return Position{
		VisualArea:  unsliceStones(pj.VisualArea, wide),
		LogicalArea: unsliceStones(pj.LogicalArea, wide),
		Player:      unsliceStones(pj.Player, wide),
		Opponent:    unsliceStones(pj.Opponent, wide),
		Ko:          unsliceStones(pj.Ko, wide),
		Target:      unsliceStones(pj.Target, wide),
		Immortal:    unsliceStones(pj.Immortal, wide),
		External:    unsliceStones(pj.External, wide),
		Passes:      pj.Passes,
		KoThreats:   pj.KoThreats,
		Button:      pj.Button,
		WhiteToPlay: pj.WhiteToPlay,
		Wide:        wide,
	}
}

// Validate reports rows that would not fit the board when decoded with the given width.
func (pj PositionJSON) Validate(wide bool) error {
	w := rowWidth(wide)
	maxRows := int(64 / w)
	wall := uint64(1)<<w - 1
	for _, field := range []struct {
		name string
		rows []uint64
	}{
		{"visualArea", pj.VisualArea},
		{"logicalArea", pj.LogicalArea},
		{"player", pj.Player},
		{"opponent", pj.Opponent},
		{"ko", pj.Ko},
		{"target", pj.Target},
		{"immortal", pj.Immortal},
		{"external", pj.External},
	} {
		if len(field.rows) > maxRows {
			return fmt.Errorf("%w: %s has %d rows", errors.ErrMalformedPosition, field.name, len(field.rows))
		}
		for i, row := range field.rows {
			if row&^wall != 0 {
				return fmt.Errorf("%w: %s row %d overflows", errors.ErrMalformedPosition, field.name, i)
			}
		}
	}
	if pj.Passes < 0 {
		return fmt.Errorf("%w: negative passes", errors.ErrMalformedPosition)
	}
	return nil
}

func (p Position) JSON() PositionJSON {
	return PositionJSON{
		VisualArea:  sliceStones(p.VisualArea, p.Wide),
		LogicalArea: sliceStones(p.LogicalArea, p.Wide),
		Player:      sliceStones(p.Player, p.Wide),
		Opponent:    sliceStones(p.Opponent, p.Wide),
		Ko:          sliceStones(p.Ko, p.Wide),
		Target:      sliceStones(p.Target, p.Wide),
		Immortal:    sliceStones(p.Immortal, p.Wide),
		External:    sliceStones(p.External, p.Wide),
		Passes:      p.Passes,
		KoThreats:   p.KoThreats,
		Button:      p.Button,
		WhiteToPlay: p.WhiteToPlay,
	}
}

func sliceStones(s Stones, wide bool) []uint64 {
	w := rowWidth(wide)
	wall := uint64(1)<<w - 1
	rows := make([]uint64, 0)
	for s != 0 {
		rows = append(rows, uint64(s)&wall)
		s >>= w
	}
	return rows
}

func unsliceStones(rows []uint64, wide bool) Stones {
	w := rowWidth(wide)
	wall := uint64(1)<<w - 1
	var s Stones
	for i := len(rows) - 1; i >= 0; i-- {
		s = s<<w | Stones(rows[i]&wall)
	}
	return s
}
