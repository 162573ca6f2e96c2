package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize point records from the source. An
// empty batch with a nil error means nothing arrived in time.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one point record into a styled point event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader publishes styled point events.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline moves point records from the extractor through the transformer to
// the loader, one batch at a time.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New wires the pipeline stages.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// Ready reports whether a batch of styled points has reached the sink.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// CheckReadiness implements the shared readiness probe.
func (p *Pipeline) CheckReadiness(context.Context) error {
	if !p.Ready() {
		return errors.New("no styled points published yet")
	}
	return nil
}

// Run pulls batches until ctx is cancelled. Extract and load failures back
// off exponentially; a successful extract resets the delay.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("point pipeline running", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	delay := &backoff{next: initialBackoff}
	for ctx.Err() == nil {
		if !p.cycle(ctx, delay) {
			break
		}
	}
	p.logger.Info("point pipeline stopped", "reason", context.Cause(ctx))
	return nil
}

// cycle handles one batch. It returns false once the pipeline must stop.
func (p *Pipeline) cycle(ctx context.Context, delay *backoff) bool {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	switch {
	case ctx.Err() != nil:
		return false
	case err != nil:
		p.logger.Error("extract batch failed", "error", err, "retry_in", delay.next)
		return delay.wait(ctx)
	case len(raws) == 0:
		return true
	}

	delay.reset()
	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))

	styled := p.stylize(ctx, raws)
	if len(styled.events) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, styled.events); err != nil {
		p.logger.Error("load batch failed", "error", err, "points", len(styled.events), "retry_in", delay.next)
		return delay.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(styled.events)))
	for _, raw := range styled.sources {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// styledBatch pairs each output event with the raw event it came from, so
// offsets are committed only after the load succeeds.
type styledBatch struct {
	events  []domain.OutputEvent
	sources []domain.RawEvent
}

// stylize transforms a batch. Records that cannot become points are counted
// by reason, committed and dropped, so a bad record never blocks its
// partition.
func (p *Pipeline) stylize(ctx context.Context, raws []domain.RawEvent) styledBatch {
	batch := styledBatch{
		events:  make([]domain.OutputEvent, 0, len(raws)),
		sources: make([]domain.RawEvent, 0, len(raws)),
	}
	for _, raw := range raws {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			reason := skipReason(err)
			p.logger.Warn("skipping record", "reason", reason, "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			p.metrics.TransformErrors.Inc()
			p.metrics.PointsSkipped.WithLabelValues(reason).Inc()
			p.commit(ctx, raw)
			continue
		}
		batch.events = append(batch.events, out)
		batch.sources = append(batch.sources, raw)
	}
	return batch
}

// skipReason labels a transform failure for the skipped-points metric.
func skipReason(err error) string {
	var recErr *domain.InvalidRecordError
	if errors.As(err, &recErr) {
		return recErr.Reason
	}
	return "parse"
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("offset commit failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff is the retry delay shared by extract and load failures.
type backoff struct {
	next time.Duration
}

func (b *backoff) reset() { b.next = initialBackoff }

// wait sleeps for the current delay and doubles it up to maxBackoff. It
// returns false when ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	if !retry.SleepWithContext(ctx, b.next) {
		return false
	}
	b.next = retry.NextBackoff(b.next, maxBackoff)
	return true
}
