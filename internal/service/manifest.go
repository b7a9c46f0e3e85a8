package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mnemoslab/mnemos/internal/domain"
)

// Disposition is the reviewer's decision for one manifest item.
type Disposition string

const (
	DispositionNew       Disposition = "new"
	DispositionSupersede Disposition = "supersede"
	DispositionCoexist   Disposition = "coexist"
	DispositionRefine    Disposition = "refine"
	DispositionSkip      Disposition = "skip"
)

func parseDisposition(s string) (Disposition, error) {
	if s == "" {
		return DispositionNew, nil
	}
	switch Disposition(s) {
	case DispositionNew, DispositionSupersede, DispositionCoexist, DispositionRefine, DispositionSkip:
		return Disposition(s), nil
	}
	return "", ErrUnknownDisposition
}

// supersedes reports whether the disposition replaces an existing
// belief. "refine" is a supersession that keeps the chain: the refined
// wording becomes the new current generation.
func (d Disposition) supersedes() bool {
	return d == DispositionSupersede || d == DispositionRefine
}

// creates reports whether the disposition inserts a fresh belief.
// "coexist" deliberately leaves the existing belief current.
func (d Disposition) creates() bool {
	return d == DispositionNew || d == DispositionCoexist
}

// Manifest is the reviewed YAML document produced by the reflection
// pipeline: observations become facts, insights become lessons,
// meta-preferences become values.
type Manifest struct {
	Observations    []ManifestObservation `yaml:"observations"`
	Insights        []ManifestInsight     `yaml:"insights"`
	MetaPreferences []ManifestPreference  `yaml:"meta_preferences"`
}

type ManifestObservation struct {
	Subject       string   `yaml:"subject"`
	Predicate     string   `yaml:"predicate"`
	Object        string   `yaml:"object"`
	Confidence    *float64 `yaml:"confidence"`
	SourceEventID *int64   `yaml:"source_event_id"`
	Action        string   `yaml:"action"`
	TargetID      int64    `yaml:"target_id"`
}

type ManifestInsight struct {
	Domain        string   `yaml:"domain"`
	Lesson        string   `yaml:"lesson"`
	Context       string   `yaml:"context"`
	Confidence    *float64 `yaml:"confidence"`
	SourceEventID *int64   `yaml:"source_event_id"`
	Action        string   `yaml:"action"`
	TargetID      int64    `yaml:"target_id"`
}

type ManifestPreference struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Priority    *int   `yaml:"priority"`
	Source      string `yaml:"source"`
	Action      string `yaml:"action"`
	TargetID    int64  `yaml:"target_id"`
}

// ManifestItemResult reports the outcome for one manifest item.
type ManifestItemResult struct {
	Section     string      `json:"section"`
	Index       int         `json:"index"`
	Disposition Disposition `json:"disposition"`
	Applied     bool        `json:"applied"`
	ID          int64       `json:"id,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// ManifestReport summarizes one ingestion run.
type ManifestReport struct {
	DryRun  bool                 `json:"dry_run"`
	Applied int                  `json:"applied"`
	Skipped int                  `json:"skipped"`
	Failed  int                  `json:"failed"`
	Items   []ManifestItemResult `json:"items"`
}

func (r *ManifestReport) add(res ManifestItemResult) {
	switch {
	case res.Error != "":
		r.Failed++
	case res.Applied:
		r.Applied++
	default:
		r.Skipped++
	}
	r.Items = append(r.Items, res)
}

// ManifestService applies reviewed manifests to the belief store.
// Items are independent: one failure never aborts the rest of the run.
type ManifestService struct {
	beliefs      *BeliefService
	supersession *SupersessionService
	logger       *zap.Logger
}

func NewManifestService(bs *BeliefService, ss *SupersessionService, logger *zap.Logger) *ManifestService {
	return &ManifestService{beliefs: bs, supersession: ss, logger: logger}
}

// ParseManifest decodes the YAML document. Missing sections decode to
// empty slices.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Apply commits every manifest item per its disposition. A dry run
// validates dispositions and supersede targets, reporting intent
// without writing.
func (s *ManifestService) Apply(ctx context.Context, m *Manifest, dryRun bool) (*ManifestReport, error) {
	report := &ManifestReport{DryRun: dryRun}

	for i, obs := range m.Observations {
		report.add(s.applyObservation(ctx, i, obs, dryRun))
	}
	for i, ins := range m.Insights {
		report.add(s.applyInsight(ctx, i, ins, dryRun))
	}
	for i, pref := range m.MetaPreferences {
		report.add(s.applyPreference(ctx, i, pref, dryRun))
	}

	s.logger.Info("manifest applied",
		zap.Bool("dry_run", dryRun),
		zap.Int("applied", report.Applied),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

func manifestSource(sourceEventID *int64) string {
	if sourceEventID != nil {
		return fmt.Sprintf("event:%d", *sourceEventID)
	}
	return "reflection"
}

// supersedeTargetError reports why superseding the target would fail,
// or "" when the target exists and is still current. Dry runs use it so
// the report never promises an apply that cannot succeed.
func (s *ManifestService) supersedeTargetError(ctx context.Context, kind domain.BeliefKind, id int64) string {
	var (
		current bool
		err     error
	)
	switch kind {
	case domain.KindFact:
		var f *domain.Fact
		if f, err = s.beliefs.GetFact(ctx, id); err == nil {
			current = f.Current()
		}
	case domain.KindLesson:
		var l *domain.Lesson
		if l, err = s.beliefs.GetLesson(ctx, id); err == nil {
			current = l.Current()
		}
	case domain.KindValue:
		var v *domain.Value
		if v, err = s.beliefs.GetValue(ctx, id); err == nil {
			current = v.Current()
		}
	}
	if err != nil {
		return err.Error()
	}
	if !current {
		return ErrAlreadySuperseded.Error()
	}
	return ""
}

func (s *ManifestService) applyObservation(ctx context.Context, index int, obs ManifestObservation, dryRun bool) ManifestItemResult {
	res := ManifestItemResult{Section: "observations", Index: index}

	disp, err := parseDisposition(obs.Action)
	if err != nil {
		res.Error = fmt.Sprintf("unknown action %q", obs.Action)
		return res
	}
	res.Disposition = disp

	if disp == DispositionSkip {
		return res
	}
	if disp.supersedes() && obs.TargetID == 0 {
		res.Error = "supersede without target_id"
		return res
	}
	if dryRun {
		if disp.supersedes() {
			if msg := s.supersedeTargetError(ctx, domain.KindFact, obs.TargetID); msg != "" {
				res.Error = msg
				return res
			}
		}
		res.Applied = true
		return res
	}

	predicate := obs.Predicate
	if predicate == "" {
		predicate = "observed"
	}
	source := manifestSource(obs.SourceEventID)

	if disp.supersedes() {
		f, err := s.supersession.SupersedeFact(ctx, obs.TargetID, obs.Object, source, obs.Confidence)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Applied = true
		res.ID = f.ID
		return res
	}

	f, err := s.beliefs.CreateFact(ctx, CreateFactInput{
		Subject:    obs.Subject,
		Predicate:  predicate,
		Object:     obs.Object,
		Source:     source,
		Confidence: obs.Confidence,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Applied = true
	res.ID = f.ID
	return res
}

func (s *ManifestService) applyInsight(ctx context.Context, index int, ins ManifestInsight, dryRun bool) ManifestItemResult {
	res := ManifestItemResult{Section: "insights", Index: index}

	disp, err := parseDisposition(ins.Action)
	if err != nil {
		res.Error = fmt.Sprintf("unknown action %q", ins.Action)
		return res
	}
	res.Disposition = disp

	if disp == DispositionSkip {
		return res
	}
	if disp.supersedes() && ins.TargetID == 0 {
		res.Error = "supersede without target_id"
		return res
	}
	if dryRun {
		if disp.supersedes() {
			if msg := s.supersedeTargetError(ctx, domain.KindLesson, ins.TargetID); msg != "" {
				res.Error = msg
				return res
			}
		}
		res.Applied = true
		return res
	}

	source := manifestSource(ins.SourceEventID)

	if disp.supersedes() {
		l, err := s.supersession.SupersedeLesson(ctx, ins.TargetID, ins.Lesson, source, ins.Confidence)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Applied = true
		res.ID = l.ID
		return res
	}

	l, err := s.beliefs.CreateLesson(ctx, CreateLessonInput{
		Domain:     ins.Domain,
		Lesson:     ins.Lesson,
		Context:    ins.Context,
		Source:     source,
		Confidence: ins.Confidence,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Applied = true
	res.ID = l.ID
	return res
}

func (s *ManifestService) applyPreference(ctx context.Context, index int, pref ManifestPreference, dryRun bool) ManifestItemResult {
	res := ManifestItemResult{Section: "meta_preferences", Index: index}

	disp, err := parseDisposition(pref.Action)
	if err != nil {
		res.Error = fmt.Sprintf("unknown action %q", pref.Action)
		return res
	}
	res.Disposition = disp

	if disp == DispositionSkip {
		return res
	}
	if disp.supersedes() && pref.TargetID == 0 {
		res.Error = "supersede without target_id"
		return res
	}
	if dryRun {
		if disp.supersedes() {
			if msg := s.supersedeTargetError(ctx, domain.KindValue, pref.TargetID); msg != "" {
				res.Error = msg
				return res
			}
		}
		res.Applied = true
		return res
	}

	source := pref.Source
	if source == "" {
		source = "reflection"
	}

	if disp.supersedes() {
		v, err := s.supersession.SupersedeValue(ctx, pref.TargetID, pref.Description, source, pref.Priority)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Applied = true
		res.ID = v.ID
		return res
	}

	priority := 50
	if pref.Priority != nil {
		priority = *pref.Priority
	}
	v, err := s.beliefs.CreateValue(ctx, CreateValueInput{
		Name:        pref.Name,
		Description: pref.Description,
		Priority:    priority,
		Source:      source,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Applied = true
	res.ID = v.ID
	return res
}
