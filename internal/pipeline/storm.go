package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
	"github.com/couchcryptid/storm-track-verify/internal/verify"
	"github.com/couchcryptid/storm-track-verify/internal/worker"
)

// stormUnit is every track of one storm. Units share no mutable state.
type stormUnit struct {
	index int
	key   string
	adeck []*track.Track
	bdeck []*track.Track
}

type unitResult struct {
	pairs     int
	kept      int
	records   []domain.Record
	landfalls []domain.LandfallRecord
}

func stormKey(t *track.Track) string {
	return t.Basin + t.Cyclone
}

// groupByStorm splits tracks by basin and cyclone number in first-seen order.
// Storms without a verifying track are dropped.
func groupByStorm(adeck, bdeck []*track.Track) []stormUnit {
	idx := make(map[string]int)
	var units []stormUnit
	for _, b := range bdeck {
		k := stormKey(b)
		i, ok := idx[k]
		if !ok {
			i = len(units)
			idx[k] = i
			units = append(units, stormUnit{index: i, key: k})
		}
		units[i].bdeck = append(units[i].bdeck, b)
	}
	for _, a := range adeck {
		if i, ok := idx[stormKey(a)]; ok {
			units[i].adeck = append(units[i].adeck, a)
		}
	}
	return units
}

type stormVerifier struct {
	run       domain.Run
	rc        *atcf.RunContext
	job       *config.Job
	rirw      verify.RIRWJob
	land      verify.LandDistancer
	watchWarn []domain.WatchWarnBulletin
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// verifyAll runs one unit per storm on a worker pool. Results come back in
// unit order.
func (v *stormVerifier) verifyAll(ctx context.Context, units []stormUnit, workers int) ([]unitResult, error) {
	results := make([]unitResult, len(units))
	pool := worker.NewPool(workers, len(units), func(ctx context.Context, u stormUnit) error {
		r, err := v.verifyStorm(ctx, u)
		if err != nil {
			return fmt.Errorf("storm %s: %w", u.key, err)
		}
		results[u.index] = r
		return nil
	})
	pool.Start(ctx)

	for _, u := range units {
		if err := pool.Submit(u); err != nil {
			break
		}
	}
	if err := pool.Stop(); err != nil {
		return nil, err
	}
	return results, nil
}

// verifyStorm pairs every forecast track of u with every eligible verifying
// track, applies the job's filters and builds output records.
func (v *stormVerifier) verifyStorm(ctx context.Context, u stormUnit) (unitResult, error) {
	rc := v.rc.Fork()
	var res unitResult

	for _, a := range u.adeck {
		for _, b := range u.bdeck {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if !verify.Eligible(a, b) {
				continue
			}
			if err := v.verifyPair(rc, a, b, &res); err != nil {
				return res, err
			}
		}
	}

	if v.job.Genesis.Enabled {
		criteria := v.job.GenesisCriteria()
		for _, b := range u.bdeck {
			if g, ok := verify.DetectGenesis(b, criteria); ok {
				res.records = append(res.records, domain.NewGenesisRecord(v.run, g))
			}
		}
	}
	return res, nil
}

func (v *stormVerifier) verifyPair(rc *atcf.RunContext, a, b *track.Track, res *unitResult) error {
	pair, err := verify.NewPair(a, b, v.land, v.job.MatchPoints)
	if err != nil {
		if errors.Is(err, verify.ErrNotEligible) {
			rc.Logger.Debug("skipping pair", "adeck", a.Key(), "bdeck", b.Key(), "reason", err)
			return nil
		}
		return err
	}
	v.metrics.PairsBuilt.Inc()
	res.pairs++

	for _, ww := range v.watchWarn {
		pair.SetWatchWarn(ww.StormID, ww.Level, ww.Issued)
	}
	for _, lf := range pair.Landfalls() {
		res.landfalls = append(res.landfalls, domain.NewLandfallRecord(pair, lf))
	}

	if v.job.WaterOnly {
		v.metrics.PointsFiltered.WithLabelValues("water_only").Add(float64(pair.CheckWaterOnly()))
	}
	if v.rirw.Track != verify.DeckNone {
		n, err := pair.CheckRIRW(v.rirw)
		if err != nil {
			return err
		}
		v.metrics.PointsFiltered.WithLabelValues("rirw").Add(float64(n))
	}
	if v.job.Landfall.Enabled {
		n := pair.CheckLandfall(v.job.Landfall.Begin, v.job.Landfall.End)
		v.metrics.PointsFiltered.WithLabelValues("landfall").Add(float64(n))
	}

	kept := pair.Kept()
	if kept == 0 {
		rc.Logger.Debug("no points left after filtering", "pair", pair.Key())
		return nil
	}
	if kept < pair.Len() {
		sub, err := pair.KeepSubset(rc, v.land)
		if err != nil {
			if atcf.IsFatal(err) {
				return err
			}
			rc.Logger.Warn("rebuilding filtered pair failed", "pair", pair.Key(), "error", err)
			return nil
		}
		pair = sub
	}

	v.metrics.PointsKept.Add(float64(pair.Kept()))
	res.kept += pair.Kept()
	res.records = append(res.records, domain.NewPairPointRecords(v.run, pair)...)
	return nil
}

type consensusGroup struct {
	basin, cyclone string
	init           time.Time
}

// buildConsensus computes every configured consensus for each group of
// forecast tracks sharing storm and init time.
func buildConsensus(logger *slog.Logger, run domain.Run, adeck []*track.Track, defs []track.ConsensusDef) ([]*track.Track, []domain.Record, error) {
	if len(defs) == 0 {
		return nil, nil, nil
	}

	idx := make(map[consensusGroup]int)
	var groups [][]*track.Track
	for _, t := range adeck {
		if t.IsBest() || t.IsAnalysis() {
			continue
		}
		k := consensusGroup{basin: t.Basin, cyclone: t.Cyclone, init: t.Init}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}

	var tracks []*track.Track
	var records []domain.Record
	for _, g := range groups {
		for _, def := range defs {
			members := track.SelectMembers(g, def)
			if len(members) == 0 {
				continue
			}
			cons, spreads, err := track.BuildConsensus(logger, def.Name, members, def.Required, def.MinCount)
			if err != nil {
				return nil, nil, err
			}
			if cons.Len() == 0 {
				continue
			}
			tracks = append(tracks, cons)
			records = append(records, domain.NewConsensusSpreadRecords(run, cons, spreads)...)
		}
	}
	return tracks, records, nil
}

// pairProbRIRW matches rapid intensity change probabilities with the
// verifying tracks.
func pairProbRIRW(logger *slog.Logger, run domain.Run, events []*prob.Event, bdeck []*track.Track) []domain.Record {
	if len(events) == 0 {
		return nil
	}
	idx := verify.NewTrackIndex(bdeck)
	var out []domain.Record
	for _, ev := range events {
		pr, ok := verify.PairProbRIRW(ev, idx)
		if !ok {
			logger.Debug("no verifying track for probability", "event", domain.ProbEventKey(ev))
			continue
		}
		out = append(out, domain.NewProbRIRWRecords(run, pr)...)
	}
	return out
}
