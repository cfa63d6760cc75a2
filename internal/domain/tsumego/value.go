package tsumego

import "fmt"

// Bound is a guaranteed value window. Values are dyadic rationals and are compared exactly.
type Bound struct {
	Low  float64 `json:"low" bson:"low" yaml:"low"`
	High float64 `json:"high" bson:"high" yaml:"high"`
}

// DualBound pairs the plain value of a position with its value under forcing tactics.
type DualBound struct {
	Plain   Bound `json:"plain"`
	Forcing Bound `json:"forcing"`
}

// Exact returns a bound where both ends equal v.
func Exact(v float64) Bound {
	return Bound{Low: v, High: v}
}

// ResultCode classifies the outcome of applying a move. The order matters: everything
// up to TakeTarget ends the contest.
type ResultCode int

const (
	Illegal ResultCode = iota
	TargetLost
	SecondPass
	TakeTarget
	ClearKo
	TakeButton
	Pass
	FillExternal
	Normal
	KoThreatAndRetake
)

var resultCodeNames = [...]string{
	Illegal:           "illegal",
	TargetLost:        "target_lost",
	SecondPass:        "second_pass",
	TakeTarget:        "take_target",
	ClearKo:           "clear_ko",
	TakeButton:        "take_button",
	Pass:              "pass",
	FillExternal:      "fill_external",
	Normal:            "normal",
	KoThreatAndRetake: "ko_threat_and_retake",
}

// Terminal reports whether the result ends the contest outright.
func (r ResultCode) Terminal() bool {
	return r > Illegal && r <= TakeTarget
}

func (r ResultCode) String() string {
	if r < 0 || int(r) >= len(resultCodeNames) {
		return fmt.Sprintf("result(%d)", int(r))
	}
	return resultCodeNames[r]
}

func (r ResultCode) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(resultCodeNames) {
		return nil, fmt.Errorf("unknown result code %d", int(r))
	}
	return []byte(resultCodeNames[r]), nil
}

func (r *ResultCode) UnmarshalText(text []byte) error {
	code, err := ParseResultCode(string(text))
	if err != nil {
		return err
	}
	*r = code
	return nil
}

func ParseResultCode(s string) (ResultCode, error) {
	for i, name := range resultCodeNames {
		if name == s {
			return ResultCode(i), nil
		}
	}
	return Illegal, fmt.Errorf("unknown result code %q", s)
}

// Tactics selects how a stored child value is reinterpreted from the parent's side.
type Tactics int

const (
	TacticsNone Tactics = iota
	TacticsDelay
	TacticsForcing
)

func (t Tactics) String() string {
	switch t {
	case TacticsNone:
		return "none"
	case TacticsDelay:
		return "delay"
	case TacticsForcing:
		return "forcing"
	}
	return fmt.Sprintf("tactics(%d)", int(t))
}

func (t Tactics) MarshalText() ([]byte, error) {
	if t < TacticsNone || t > TacticsForcing {
		return nil, fmt.Errorf("unknown tactics %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tactics) UnmarshalText(text []byte) error {
	tactics, err := ParseTactics(string(text))
	if err != nil {
		return err
	}
	*t = tactics
	return nil
}

func ParseTactics(s string) (Tactics, error) {
	switch s {
	case "", "none":
		return TacticsNone, nil
	case "delay":
		return TacticsDelay, nil
	case "forcing":
		return TacticsForcing, nil
	}
	return TacticsNone, fmt.Errorf("unknown tactics %q", s)
}

const (
	// BigScore exceeds every regular area score on a 9x7 board.
	BigScore = 9*7 + 10
	// DelayBonus rewards delaying an inevitable capture.
	DelayBonus = 0.25
)

// DelayCapture nudges a lost score upwards so that the losing side prefers to resist longer.
func DelayCapture(score float64) float64 {
	if score < -BigScore {
		return score + DelayBonus
	}
	return score
}
