package atcf

import (
	"fmt"
	"strings"
)

// Kind is the line sub-type selected by the discriminator column.
type Kind int

const (
	KindNone Kind = iota
	KindTrack
	KindGenTrack
	KindProbTR
	KindProbIN
	KindProbRIRW
	KindProbWD
	KindProbPR
	KindProbGN
	KindProbGS
)

var kindNames = [...]string{
	KindNone:     "NONE",
	KindTrack:    "TRACK",
	KindGenTrack: "GENTRACK",
	KindProbTR:   "PROB_TR",
	KindProbIN:   "PROB_IN",
	KindProbRIRW: "PROB_RIRW",
	KindProbWD:   "PROB_WD",
	KindProbPR:   "PROB_PR",
	KindProbGN:   "PROB_GN",
	KindProbGS:   "PROB_GS",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "NONE"
	}
	return kindNames[k]
}

// IsTrack reports whether k is a track or genesis-track line.
func (k Kind) IsTrack() bool { return k == KindTrack || k == KindGenTrack }

// IsProb reports whether k is one of the probability line kinds.
func (k Kind) IsProb() bool { return k >= KindProbTR && k <= KindProbGS }

// discriminatorColumn holds the technique number on track lines and the
// probability type on probability lines.
const discriminatorColumn = 3

// KindOf classifies the discriminator column.
func KindOf(field string) Kind {
	s := strings.TrimSpace(field)
	switch {
	case s == "":
		return KindTrack
	case len(s) == 10 && allDigits(s):
		return KindGenTrack
	case allDigits(s):
		return KindTrack
	}

	switch strings.ToUpper(s) {
	case "TR":
		return KindProbTR
	case "IN":
		return KindProbIN
	case "RI":
		return KindProbRIRW
	case "WD":
		return KindProbWD
	case "PR":
		return KindProbPR
	case "GN":
		return KindProbGN
	case "GS":
		return KindProbGS
	default:
		return KindNone
	}
}

// minColumns is the shortest acceptable line for each kind.
func minColumns(k Kind) int {
	switch k {
	case KindTrack:
		return 8
	case KindGenTrack:
		return 9
	case KindProbRIRW:
		return 14
	case KindProbGN, KindProbGS:
		return 13
	default:
		return 10
	}
}

// Line is one comma-delimited record with whitespace-trimmed fields.
type Line struct {
	Text   string   // verbatim input, without the line terminator
	Fields []string // trimmed columns
	Kind   Kind
}

// ParseLine splits and classifies a raw record. It never mutates text.
func ParseLine(text string) (Line, error) {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return Line{}, ErrBlankLine
	}

	raw := strings.Split(text, ",")
	// A trailing delimiter does not open a new column.
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	fields := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = strings.TrimSpace(f)
	}

	l := Line{Text: text, Fields: fields}
	if strings.EqualFold(fields[0], "BASIN") {
		return l, ErrHeaderLine
	}

	if len(fields) <= discriminatorColumn {
		return l, fmt.Errorf("%w: %d columns", ErrShortLine, len(fields))
	}

	l.Kind = KindOf(fields[discriminatorColumn])
	if l.Kind == KindNone {
		return l, fmt.Errorf("%w: %q", ErrUnknownLineType, fields[discriminatorColumn])
	}
	if n := minColumns(l.Kind); len(fields) < n {
		return l, fmt.Errorf("%w: %s line has %d of %d columns", ErrShortLine, l.Kind, len(fields), n)
	}
	return l, nil
}

// Field returns column i, or "" when the line is shorter.
func (l Line) Field(i int) string {
	if i < 0 || i >= len(l.Fields) {
		return ""
	}
	return l.Fields[i]
}

// Canonical joins the trimmed fields. Two lines differing only in
// whitespace share a canonical form.
func (l Line) Canonical() string {
	return strings.Join(l.Fields, ",")
}
