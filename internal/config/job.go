package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/track"
	"github.com/couchcryptid/storm-track-verify/internal/verify"
)

var validate = validator.New()

// Job describes what one verification run pairs, filters and derives.
type Job struct {
	BasinMap        map[string]string `yaml:"basin_map"`
	BestTechniques  []string          `yaml:"best_techniques"`
	OperTechniques  []string          `yaml:"oper_techniques"`
	TechniqueSuffix string            `yaml:"technique_suffix"`

	CheckDup      bool `yaml:"check_dup" default:"true"`
	CheckAnalysis bool `yaml:"check_analysis" default:"true"`
	MatchPoints   bool `yaml:"match_points" default:"true"`
	WaterOnly     bool `yaml:"water_only"`

	Consensus []ConsensusJob `yaml:"consensus" validate:"dive"`
	RIRW      RIRWJob        `yaml:"rirw"`
	Landfall  LandfallJob    `yaml:"landfall"`
	Genesis   GenesisJob     `yaml:"genesis"`

	WatchWarnFile   string        `yaml:"watch_warn_file"`
	WatchWarnOffset time.Duration `yaml:"watch_warn_offset" default:"-4h"`
}

// ConsensusJob defines one consensus track.
type ConsensusJob struct {
	Name     string   `yaml:"name" validate:"required"`
	Members  []string `yaml:"members" validate:"min=1,dive,required"`
	Required []string `yaml:"required"`
	MinCount int      `yaml:"min_count" default:"1" validate:"gte=1"`
}

// RIRWJob configures the rapid intensity change filter.
type RIRWJob struct {
	Track string        `yaml:"track" default:"NONE" validate:"oneof=NONE ADECK BDECK BOTH"`
	ADeck RIRWWindowJob `yaml:"adeck"`
	BDeck RIRWWindowJob `yaml:"bdeck"`
}

// RIRWWindowJob is one deck's intensity change window.
type RIRWWindowJob struct {
	Time   time.Duration `yaml:"time" default:"24h" validate:"gt=0"`
	Exact  bool          `yaml:"exact" default:"true"`
	Thresh string        `yaml:"thresh" default:">=30" validate:"required"`
}

// LandfallJob keeps points with a best track landfall in [valid-End, valid-Begin].
type LandfallJob struct {
	Enabled bool          `yaml:"enabled"`
	Begin   time.Duration `yaml:"begin" default:"-24h"`
	End     time.Duration `yaml:"end"`
}

// GenesisJob enables genesis detection on best tracks.
type GenesisJob struct {
	Enabled         bool     `yaml:"enabled"`
	MinVMax         float64  `yaml:"min_vmax" validate:"gte=0"`
	MaxMSLP         float64  `yaml:"max_mslp" validate:"gte=0"`
	Levels          []string `yaml:"levels"`
	RequireWarmCore bool     `yaml:"require_warm_core"`
}

// DefaultJob returns a job with every default applied.
func DefaultJob() (*Job, error) {
	var j Job
	if err := defaults.Set(&j); err != nil {
		return nil, fmt.Errorf("set job defaults: %w", err)
	}
	return &j, nil
}

// LoadJob reads and validates a YAML job file. Defaults are applied before
// decoding so explicit false values in the file survive.
func LoadJob(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	return ParseJob(b)
}

// ParseJob decodes and validates job YAML.
func ParseJob(b []byte) (*Job, error) {
	j, err := DefaultJob()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, j); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	for i := range j.Consensus {
		if err := defaults.Set(&j.Consensus[i]); err != nil {
			return nil, fmt.Errorf("set consensus defaults: %w", err)
		}
	}
	if err := j.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate job file: %w", err)
	}
	return j, nil
}

// Validate checks struct tags and the settings tags cannot express.
func (j *Job) Validate(ctx context.Context) error {
	if err := validate.StructCtx(ctx, j); err != nil {
		return err
	}
	if _, err := j.RIRWFilter(); err != nil {
		return err
	}
	if j.Landfall.Begin > j.Landfall.End {
		return fmt.Errorf("landfall begin %s is after end %s", j.Landfall.Begin, j.Landfall.End)
	}
	for _, c := range j.Consensus {
		for _, r := range c.Required {
			if !slices.Contains(c.Members, r) {
				return fmt.Errorf("consensus %s: required member %s is not a member", c.Name, r)
			}
		}
	}
	return nil
}

// Conventions returns the naming rules applied while decoding rows.
func (j *Job) Conventions() atcf.Conventions {
	return atcf.Conventions{
		BasinMap:       j.BasinMap,
		BestTechniques: j.BestTechniques,
		OperTechniques: j.OperTechniques,
		TechSuffix:     j.TechniqueSuffix,
	}
}

// TrackOptions returns the assembler options.
func (j *Job) TrackOptions() track.Options {
	return track.Options{CheckDup: j.CheckDup, CheckAnalysis: j.CheckAnalysis}
}

// ConsensusDefs converts the consensus jobs.
func (j *Job) ConsensusDefs() []track.ConsensusDef {
	out := make([]track.ConsensusDef, len(j.Consensus))
	for i, c := range j.Consensus {
		out[i] = track.ConsensusDef{
			Name:     c.Name,
			Members:  c.Members,
			Required: c.Required,
			MinCount: c.MinCount,
		}
	}
	return out
}

// RIRWFilter converts the rapid intensity change job.
func (j *Job) RIRWFilter() (verify.RIRWJob, error) {
	deck, err := verify.ParseDeck(j.RIRW.Track)
	if err != nil {
		return verify.RIRWJob{}, err
	}
	a, err := j.RIRW.ADeck.window()
	if err != nil {
		return verify.RIRWJob{}, fmt.Errorf("rirw adeck: %w", err)
	}
	b, err := j.RIRW.BDeck.window()
	if err != nil {
		return verify.RIRWJob{}, fmt.Errorf("rirw bdeck: %w", err)
	}
	return verify.RIRWJob{Track: deck, A: a, B: b}, nil
}

func (w RIRWWindowJob) window() (verify.RIRWWindow, error) {
	th, err := verify.ParseThreshold(w.Thresh)
	if err != nil {
		return verify.RIRWWindow{}, err
	}
	return verify.RIRWWindow{Lookback: w.Time, Exact: w.Exact, Threshold: th}, nil
}

// GenesisCriteria converts the genesis job. With no criteria set the first
// tropical point counts.
func (j *Job) GenesisCriteria() verify.GenesisCriteria {
	g := j.Genesis
	if g.MinVMax == 0 && g.MaxMSLP == 0 && len(g.Levels) == 0 && !g.RequireWarmCore {
		return verify.DefaultGenesisCriteria()
	}
	c := verify.GenesisCriteria{
		MinVMax:         g.MinVMax,
		MaxMSLP:         g.MaxMSLP,
		RequireWarmCore: g.RequireWarmCore,
	}
	for _, l := range g.Levels {
		c.Levels = append(c.Levels, atcf.ParseCycloneLevel(l))
	}
	return c
}
