package service

import (
	"context"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
	"go.uber.org/zap"
)

// ExportSchemaVersion is bumped whenever the document shape changes in
// a way the archival collaborator must know about.
const ExportSchemaVersion = 1

// ExportWindow bounds an export by time, with optional salience floors.
type ExportWindow struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	MinImportance float64   `json:"min_importance"`
	MinSalience   float64   `json:"min_salience"`
}

// ExportMeta describes how a document was produced.
type ExportMeta struct {
	SchemaVersion int          `json:"schema_version"`
	ExportedAt    time.Time    `json:"exported_at"`
	Window        ExportWindow `json:"window"`
}

// ExportDocument is the single JSON body handed to the external
// signing/archival collaborator.
type ExportDocument struct {
	Meta   ExportMeta     `json:"meta"`
	Events []domain.Event `json:"events"`
	Facts  []domain.Fact  `json:"facts"`
}

// ExportService assembles bulk export documents. It only reads; the
// archival side owns signing and storage.
type ExportService struct {
	events domain.EventStore
	facts  domain.FactStore
	logger *zap.Logger
	now    func() time.Time
}

func NewExportService(es domain.EventStore, fs domain.FactStore, logger *zap.Logger) *ExportService {
	return &ExportService{events: es, facts: fs, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Export collects the window's qualifying events and facts. Events
// qualify on importance or emotional salience; facts on salience alone
// since they carry no importance score.
func (s *ExportService) Export(ctx context.Context, window ExportWindow) (*ExportDocument, error) {
	events, err := s.events.ListWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, err
	}
	facts, err := s.facts.ListWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{
		Meta: ExportMeta{
			SchemaVersion: ExportSchemaVersion,
			ExportedAt:    s.now(),
			Window:        window,
		},
		Events: make([]domain.Event, 0, len(events)),
		Facts:  make([]domain.Fact, 0, len(facts)),
	}

	for i := range events {
		e := &events[i]
		if e.Importance < window.MinImportance && domain.Salience(e.Valence, e.Arousal) < window.MinSalience {
			continue
		}
		doc.Events = append(doc.Events, *e)
	}
	for i := range facts {
		f := &facts[i]
		v, a := domain.EmotionOrDefault(f.Valence, f.Arousal)
		if domain.Salience(v, a) < window.MinSalience {
			continue
		}
		doc.Facts = append(doc.Facts, *f)
	}

	s.logger.Info("export assembled",
		zap.Time("from", window.From),
		zap.Time("to", window.To),
		zap.Int("events", len(doc.Events)),
		zap.Int("facts", len(doc.Facts)))
	return doc, nil
}
