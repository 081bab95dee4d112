package verify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// ErrInvalidThreshold is returned for a threshold string that cannot be parsed.
var ErrInvalidThreshold = errors.New("invalid threshold")

// Op is a threshold comparison.
type Op int

const (
	OpNone Op = iota
	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
)

var opSymbols = [...]string{"", "<", "<=", ">", ">=", "==", "!="}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opSymbols) {
		return ""
	}
	return opSymbols[o]
}

// Prefix forms are matched before symbols so "<=" is not read as "<".
var opPrefixes = []struct {
	prefix string
	op     Op
}{
	{"<=", OpLE}, {">=", OpGE}, {"==", OpEQ}, {"!=", OpNE},
	{"<", OpLT}, {">", OpGT},
	{"le", OpLE}, {"ge", OpGE}, {"eq", OpEQ}, {"ne", OpNE},
	{"lt", OpLT}, {"gt", OpGT},
}

// Threshold is a comparison against a fixed value, e.g. ">=30".
type Threshold struct {
	Op    Op
	Value float64
}

// ParseThreshold accepts symbolic (">=30") and abbreviated ("ge30") forms.
func ParseThreshold(s string) (Threshold, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, p := range opPrefixes {
		rest, ok := strings.CutPrefix(v, p.prefix)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
		}
		return Threshold{Op: p.op, Value: f}, nil
	}
	return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
}

// MustThreshold is ParseThreshold for literals known to be valid.
func MustThreshold(s string) Threshold {
	t, err := ParseThreshold(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Check reports whether v satisfies the threshold. Missing values never do.
func (t Threshold) Check(v float64) bool {
	if atcf.IsMissing(v) {
		return false
	}
	switch t.Op {
	case OpLT:
		return v < t.Value
	case OpLE:
		return v <= t.Value
	case OpGT:
		return v > t.Value
	case OpGE:
		return v >= t.Value
	case OpEQ:
		return v == t.Value
	case OpNE:
		return v != t.Value
	default:
		return false
	}
}

// IsIncrease reports a greater-than comparison.
func (t Threshold) IsIncrease() bool { return t.Op == OpGT || t.Op == OpGE }

// IsDecrease reports a less-than comparison.
func (t Threshold) IsDecrease() bool { return t.Op == OpLT || t.Op == OpLE }

func (t Threshold) String() string {
	if t.Op == OpNone {
		return "NA"
	}
	return t.Op.String() + strconv.FormatFloat(t.Value, 'f', -1, 64)
}

// UnmarshalText lets thresholds appear as plain strings in job files.
func (t *Threshold) UnmarshalText(b []byte) error {
	v, err := ParseThreshold(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (t Threshold) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
