package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/safety-dashboard/internal/domain"
	"github.com/couchcryptid/safety-dashboard/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// SourceChecker is implemented by extractors that can report whether their
// source is reachable without waiting for a message.
type SourceChecker interface {
	Ping(ctx context.Context) error
}

// Transformer converts a raw event into a region update.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.RegionUpdate, error)
}

// BatchLoader applies region updates to the board.
type BatchLoader interface {
	LoadBatch(ctx context.Context, updates []domain.RegionUpdate) error
}

const (
	minRetryDelay       = 200 * time.Millisecond
	maxRetryDelay       = 5 * time.Second
	sourceCheckInterval = 5 * time.Second
)

// Pipeline keeps the board in step with the region update topic.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	state       readiness
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
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

// CheckReadiness reports whether the pipeline is running against a reachable
// source whose last read succeeded. An idle topic does not make it unready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	return p.state.err()
}

// Run applies region updates to the board until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)

	ctx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	checker, canCheck := p.extractor.(SourceChecker)
	sourceUp := true
	if canCheck {
		sourceUp = p.checkSource(ctx, checker)
	}
	p.state.start(sourceUp)
	if canCheck {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.watchSource(ctx, checker)
		}()
	}
	defer func() {
		stop()
		wg.Wait()
		p.state.stop()
		p.metrics.PipelineRunning.Set(0)
	}()

	retry := newRetryDelay()
	for ctx.Err() == nil {
		p.step(ctx, retry)
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// watchSource re-checks the source on an interval while Run is active.
func (p *Pipeline) watchSource(ctx context.Context, checker SourceChecker) {
	ticker := time.NewTicker(sourceCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.state.sourceUp.Store(p.checkSource(ctx, checker))
		}
	}
}

func (p *Pipeline) checkSource(ctx context.Context, checker SourceChecker) bool {
	checkCtx, cancel := context.WithTimeout(ctx, sourceCheckInterval)
	defer cancel()
	if err := checker.Ping(checkCtx); err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("update source unreachable", "error", err)
		}
		return false
	}
	return true
}

// step reads one batch of region updates and applies it to the board.
func (p *Pipeline) step(ctx context.Context, retry *retryDelay) {
	start := time.Now()

	events, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("reading region updates failed", "error", err)
		p.state.readFailing.Store(true)
		retry.wait(ctx)
		return
	}
	p.state.readFailing.Store(false)
	if len(events) == 0 {
		return
	}

	p.metrics.MessagesConsumed.Add(float64(len(events)))
	p.metrics.BatchSize.Observe(float64(len(events)))
	retry.reset()

	if p.apply(ctx, events, retry) > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
}

// apply decodes the events, hands the valid updates to the board and commits
// their offsets. Rejected events are committed straight away so a bad message
// never holds up its partition. It returns how many updates reached the board.
func (p *Pipeline) apply(ctx context.Context, events []domain.RawEvent, retry *retryDelay) int {
	updates := make([]domain.RegionUpdate, 0, len(events))
	accepted := make([]domain.RawEvent, 0, len(events))
	for _, raw := range events {
		u, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.reject(ctx, raw, err)
			continue
		}
		updates = append(updates, u)
		accepted = append(accepted, raw)
	}
	if len(updates) == 0 {
		return 0
	}

	if err := p.loader.LoadBatch(ctx, updates); err != nil && !p.boardRejected(err, len(updates)) {
		// Leave the offsets uncommitted; the batch is delivered again.
		retry.wait(ctx)
		return 0
	}
	for _, raw := range accepted {
		p.commit(ctx, raw)
	}
	return len(updates)
}

// boardRejected reports whether a load error is the board refusing regions it
// does not have. The rest of the batch was applied and the refused updates
// would fail the same way on redelivery, so the batch counts as done.
func (p *Pipeline) boardRejected(err error, batchSize int) bool {
	if !errors.Is(err, domain.ErrUnknownRegion) {
		p.logger.Error("applying region updates failed", "error", err, "batch_size", batchSize)
		return false
	}
	p.logger.Warn("board refused updates for unknown regions", "error", err, "batch_size", batchSize)
	p.metrics.UpdateErrors.WithLabelValues(rejectReason(err)).Inc()
	return true
}

func (p *Pipeline) reject(ctx context.Context, raw domain.RawEvent, err error) {
	p.logger.Warn("skipping region update",
		"error", err,
		"topic", raw.Topic,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	p.metrics.UpdateErrors.WithLabelValues(rejectReason(err)).Inc()
	p.commit(ctx, raw)
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func rejectReason(err error) string {
	if errors.Is(err, domain.ErrUnknownRegion) {
		return "unknown_region"
	}
	return "invalid"
}

// readiness is the state behind CheckReadiness.
type readiness struct {
	running     atomic.Bool
	sourceUp    atomic.Bool
	readFailing atomic.Bool
}

func (r *readiness) start(sourceUp bool) {
	r.sourceUp.Store(sourceUp)
	r.readFailing.Store(false)
	r.running.Store(true)
}

func (r *readiness) stop() {
	r.running.Store(false)
}

func (r *readiness) err() error {
	switch {
	case !r.running.Load():
		return errors.New("pipeline is not running")
	case r.readFailing.Load():
		return errors.New("pipeline cannot read region updates")
	case !r.sourceUp.Load():
		return errors.New("update source is unreachable")
	}
	return nil
}

// retryDelay doubles from minRetryDelay up to maxRetryDelay between failed
// attempts and drops back once a batch is read.
type retryDelay struct {
	next time.Duration
}

func newRetryDelay() *retryDelay {
	return &retryDelay{next: minRetryDelay}
}

func (r *retryDelay) reset() {
	r.next = minRetryDelay
}

// wait sleeps for the current delay or until ctx is done.
func (r *retryDelay) wait(ctx context.Context) {
	timer := time.NewTimer(r.next)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	r.next = min(r.next*2, maxRetryDelay)
}
