package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
	"github.com/couchcryptid/storm-track-verify/internal/verify"
)

// RecordKind names the payload type of a Record.
type RecordKind string

const (
	KindPairPoint       RecordKind = "pair_point"
	KindProbRIRW        RecordKind = "prob_rirw"
	KindConsensusSpread RecordKind = "consensus_spread"
	KindLandfall        RecordKind = "landfall"
	KindGenesis         RecordKind = "genesis"
)

// Record is one output row ready for a loader. Payload is one of the
// *Record structs below and is serialized by the loader.
type Record struct {
	Kind        RecordKind
	Key         string
	RunID       string
	ProcessedAt time.Time
	Payload     any
}

func newRecord(run Run, kind RecordKind, key string, payload any) Record {
	return Record{
		Kind:        kind,
		Key:         key,
		RunID:       run.ID,
		ProcessedAt: clock.Now().UTC(),
		Payload:     payload,
	}
}

// num converts the missing-value sentinel to nil.
func num(v float64) *float64 {
	if atcf.IsMissing(v) {
		return nil
	}
	return &v
}

func hours(d time.Duration) float64 { return d.Hours() }

// PairPointRecord is one kept time of a forecast/verification pair.
type PairPointRecord struct {
	RunID     string    `json:"run_id"`
	StormID   string    `json:"storm_id"`
	Basin     string    `json:"basin"`
	Cyclone   string    `json:"cyclone"`
	StormName string    `json:"storm_name,omitempty"`
	ADeck     string    `json:"adeck"`
	BDeck     string    `json:"bdeck"`
	Init      time.Time `json:"init"`
	Valid     time.Time `json:"valid"`
	LeadHours float64   `json:"lead_hours"`

	ALat   *float64 `json:"alat"`
	ALon   *float64 `json:"alon"`
	AVMax  *float64 `json:"avmax"`
	AMSLP  *float64 `json:"amslp"`
	ALevel string   `json:"alevel,omitempty"`
	BLat   *float64 `json:"blat"`
	BLon   *float64 `json:"blon"`
	BVMax  *float64 `json:"bvmax"`
	BMSLP  *float64 `json:"bmslp"`
	BLevel string   `json:"blevel,omitempty"`

	ADistLand *float64 `json:"adland"` // nm, negative over land
	BDistLand *float64 `json:"bdland"`

	TrackErr *float64 `json:"tk_err"`
	XErr     *float64 `json:"x_err"`
	YErr     *float64 `json:"y_err"`
	AlongErr *float64 `json:"altk_err"`
	CrossErr *float64 `json:"crtk_err"`
	VMaxErr  *float64 `json:"vmax_err"`
	MSLPErr  *float64 `json:"mslp_err"`

	ARIRW     string `json:"arirw"`
	BRIRW     string `json:"brirw"`
	WatchWarn string `json:"watch_warn,omitempty"`
}

// NewPairPointRecords builds one record per kept point of p.
func NewPairPointRecords(run Run, p *verify.Pair) []Record {
	key := p.Key().String()
	var out []Record
	for _, pp := range p.Points() {
		if !pp.Keep {
			continue
		}
		rec := PairPointRecord{
			RunID:     run.ID,
			StormID:   p.StormID,
			Basin:     p.Basin,
			Cyclone:   p.Cyclone,
			StormName: p.StormName,
			ADeck:     techniqueOf(p.ADeck),
			BDeck:     techniqueOf(p.BDeck),
			Init:      p.Init,
			Valid:     pp.Valid,
			LeadHours: hours(pp.Lead),
			ALat:      num(pp.A.Lat),
			ALon:      num(pp.A.Lon),
			AVMax:     num(pp.A.VMax),
			AMSLP:     num(pp.A.MSLP),
			ALevel:    string(pp.A.Level),
			BLat:      num(pp.B.Lat),
			BLon:      num(pp.B.Lon),
			BVMax:     num(pp.B.VMax),
			BMSLP:     num(pp.B.MSLP),
			BLevel:    string(pp.B.Level),
			ADistLand: num(pp.ALand),
			BDistLand: num(pp.BLand),
			TrackErr:  num(pp.TrackErr),
			XErr:      num(pp.XErr),
			YErr:      num(pp.YErr),
			AlongErr:  num(pp.AlongErr),
			CrossErr:  num(pp.CrossErr),
			VMaxErr:   num(pp.VMaxErr),
			MSLPErr:   num(pp.MSLPErr),
			ARIRW:     pp.ARIRW.String(),
			BRIRW:     pp.BRIRW.String(),
			WatchWarn: string(pp.WatchWarn()),
		}
		out = append(out, newRecord(run, KindPairPoint, key, rec))
	}
	return out
}

func techniqueOf(t *track.Track) string {
	if t == nil {
		return ""
	}
	return t.Technique
}

// ProbRIRWRecord is one threshold of a rapid intensity change probability
// event with the verifying track's behavior over the window.
type ProbRIRWRecord struct {
	RunID       string    `json:"run_id"`
	StormID     string    `json:"storm_id"`
	Basin       string    `json:"basin"`
	Cyclone     string    `json:"cyclone"`
	Technique   string    `json:"technique"`
	Init        time.Time `json:"init"`
	WindowBegin int       `json:"window_begin"`
	WindowEnd   int       `json:"window_end"`
	Item        string    `json:"item"`
	Prob        int       `json:"prob"`
	VFinal      *float64  `json:"v_final"`
	ALat        *float64  `json:"alat"`
	ALon        *float64  `json:"alon"`

	BDeck     string   `json:"bdeck"`
	BLat      *float64 `json:"blat"`
	BLon      *float64 `json:"blon"`
	BBegV     *float64 `json:"bbeg_v"`
	BEndV     *float64 `json:"bend_v"`
	BMinV     *float64 `json:"bmin_v"`
	BMaxV     *float64 `json:"bmax_v"`
	BChange   *float64 `json:"bchange"`
	BBegLevel string   `json:"bbeg_level,omitempty"`
	BEndLevel string   `json:"bend_level,omitempty"`
	TrackErr  *float64 `json:"tk_err"`
	XErr      *float64 `json:"x_err"`
	YErr      *float64 `json:"y_err"`

	// Occurred reports whether the verifying change reached Item, when Item
	// is a signed intensity change in kt.
	Occurred *bool `json:"occurred"`
}

// NewProbRIRWRecords builds one record per threshold item of the event.
func NewProbRIRWRecords(run Run, pr verify.ProbRIRWPair) []Record {
	ev := pr.Event
	key := track.Key{StormID: ev.StormID, Technique: ev.Technique, Init: ev.Init}.String()
	change := pr.Change()

	out := make([]Record, 0, len(ev.Pairs))
	for _, p := range ev.Pairs {
		rec := ProbRIRWRecord{
			RunID:       run.ID,
			StormID:     ev.StormID,
			Basin:       ev.Basin,
			Cyclone:     ev.Cyclone,
			Technique:   ev.Technique,
			Init:        ev.Init,
			WindowBegin: ev.WindowBegin,
			WindowEnd:   ev.WindowEnd,
			Item:        p.Item,
			Prob:        p.Prob,
			VFinal:      num(float64(ev.VFinal)),
			ALat:        num(ev.Lat),
			ALon:        num(ev.Lon),
			BDeck:       pr.BDeck.Technique,
			BLat:        num(pr.BLat),
			BLon:        num(pr.BLon),
			BBegV:       num(pr.BBegV),
			BEndV:       num(pr.BEndV),
			BMinV:       num(pr.BMinV),
			BMaxV:       num(pr.BMaxV),
			BChange:     num(change),
			BBegLevel:   string(pr.BBegLevel),
			BEndLevel:   string(pr.BEndLevel),
			TrackErr:    num(pr.TrackErr),
			XErr:        num(pr.XErr),
			YErr:        num(pr.YErr),
			Occurred:    occurred(p.Item, change),
		}
		out = append(out, newRecord(run, KindProbRIRW, key, rec))
	}
	return out
}

// occurred compares a verifying intensity change with a signed threshold
// item: positive items are increases, negative items decreases.
func occurred(item string, change float64) *bool {
	n, err := strconv.Atoi(strings.TrimSpace(item))
	if err != nil || n == 0 || atcf.IsMissing(change) {
		return nil
	}
	var ok bool
	if n > 0 {
		ok = change >= float64(n)
	} else {
		ok = change <= float64(n)
	}
	return &ok
}

// ConsensusSpreadRecord describes one lead time of a consensus track.
type ConsensusSpreadRecord struct {
	RunID      string    `json:"run_id"`
	StormID    string    `json:"storm_id"`
	Technique  string    `json:"technique"`
	Init       time.Time `json:"init"`
	LeadHours  float64   `json:"lead_hours"`
	Members    int       `json:"members"`
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	VMax       *float64  `json:"vmax"`
	MSLP       *float64  `json:"mslp"`
	TrackStdev *float64  `json:"track_stdev"`
	TrackMean  *float64  `json:"track_mean"`
	VMaxStdev  *float64  `json:"vmax_stdev"`
	MSLPStdev  *float64  `json:"mslp_stdev"`
}

// NewConsensusSpreadRecords pairs each spread with the consensus point at
// the same lead.
func NewConsensusSpreadRecords(run Run, cons *track.Track, spreads []track.Spread) []Record {
	key := cons.Key().String()
	out := make([]Record, 0, len(spreads))
	for _, s := range spreads {
		pt := atcf.EmptyPoint()
		if i := cons.LeadIndex(s.Lead); i >= 0 {
			pt, _ = cons.Point(i)
		}
		rec := ConsensusSpreadRecord{
			RunID:      run.ID,
			StormID:    cons.StormID,
			Technique:  cons.Technique,
			Init:       cons.Init,
			LeadHours:  hours(s.Lead),
			Members:    s.Members,
			Lat:        num(pt.Lat),
			Lon:        num(pt.Lon),
			VMax:       num(pt.VMax),
			MSLP:       num(pt.MSLP),
			TrackStdev: num(s.TrackStdev),
			TrackMean:  num(s.TrackMean),
			VMaxStdev:  num(s.VMaxStdev),
			MSLPStdev:  num(s.MSLPStdev),
		}
		out = append(out, newRecord(run, KindConsensusSpread, key, rec))
	}
	return out
}

// LandfallRecord is a verifying track crossing onto land, optionally named
// by a geocoder.
type LandfallRecord struct {
	RunID     string    `json:"run_id"`
	StormID   string    `json:"storm_id"`
	StormName string    `json:"storm_name,omitempty"`
	BDeck     string    `json:"bdeck"`
	Valid     time.Time `json:"valid"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	VMax      *float64  `json:"vmax"`

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"
}

// NewLandfallRecord describes lf on the verifying track of p.
func NewLandfallRecord(p *verify.Pair, lf verify.Landfall) LandfallRecord {
	return LandfallRecord{
		StormID:   p.StormID,
		StormName: p.StormName,
		BDeck:     techniqueOf(p.BDeck),
		Valid:     lf.Valid,
		Lat:       lf.Lat,
		Lon:       lf.Lon,
		VMax:      num(lf.VMax),
	}
}

// LandfallKey identifies a landfall independent of the forecasts that
// revealed it.
func (r LandfallRecord) LandfallKey() string {
	return fmt.Sprintf("%s/%s/%s", r.StormID, r.BDeck, atcf.FormatTime(r.Valid))
}

// Record wraps r for a loader.
func (r LandfallRecord) Record(run Run) Record {
	r.RunID = run.ID
	return newRecord(run, KindLandfall, r.LandfallKey(), r)
}

// GenesisRecord is the first point of a track meeting the genesis criteria.
type GenesisRecord struct {
	RunID     string    `json:"run_id"`
	StormID   string    `json:"storm_id"`
	Technique string    `json:"technique"`
	Init      time.Time `json:"init"`
	Valid     time.Time `json:"valid"`
	LeadHours float64   `json:"lead_hours"`
	Lat       *float64  `json:"lat"`
	Lon       *float64  `json:"lon"`
	VMax      *float64  `json:"vmax"`
}

// NewGenesisRecord wraps g for a loader.
func NewGenesisRecord(run Run, g verify.Genesis) Record {
	rec := GenesisRecord{
		RunID:     run.ID,
		StormID:   g.Track.StormID,
		Technique: g.Track.Technique,
		Init:      g.Track.Init,
		Valid:     g.Valid,
		LeadHours: hours(g.Lead),
		Lat:       num(g.Lat),
		Lon:       num(g.Lon),
		VMax:      num(g.VMax),
	}
	return newRecord(run, KindGenesis, g.Track.String(), rec)
}

// ProbEventKey identifies a probability event for logging.
func ProbEventKey(ev *prob.Event) string {
	return fmt.Sprintf("%s/%s/%s/%s", ev.Kind, ev.StormID, ev.Technique, atcf.FormatTime(ev.Init))
}
