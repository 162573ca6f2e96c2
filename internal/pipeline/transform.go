package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/geobin/internal/domain"
)

// PointTransformer implements Transformer: it parses a point record, looks up
// coordinates for URL-only records, and styles the point with a classifier.
type PointTransformer struct {
	classifier domain.Classifier
	locator    domain.Locator
	logger     *slog.Logger
}

// NewTransformer creates a PointTransformer. Pass a nil locator to disable
// URL lookups.
func NewTransformer(classifier domain.Classifier, locator domain.Locator, logger *slog.Logger) *PointTransformer {
	return &PointTransformer{
		classifier: classifier,
		locator:    locator,
		logger:     logger,
	}
}

func (t *PointTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	rec = domain.LocateRecord(ctx, rec, t.locator, t.logger)

	point, err := domain.ResolvePoint(rec)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	return domain.NewOutputEvent(domain.StylePoint(point, rec.Name, t.classifier))
}
