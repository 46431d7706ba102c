package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/safety-dashboard/internal/domain"
)

// RegionLookup reports whether a region code is on the board.
type RegionLookup interface {
	Known(code string) bool
}

// UpdateTransformer implements Transformer by decoding region update messages
// and rejecting regions the board does not know.
type UpdateTransformer struct {
	regions RegionLookup
	logger  *slog.Logger
}

// NewTransformer creates an UpdateTransformer. A nil lookup accepts every
// region code.
func NewTransformer(regions RegionLookup, logger *slog.Logger) *UpdateTransformer {
	return &UpdateTransformer{
		regions: regions,
		logger:  logger,
	}
}

func (t *UpdateTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.RegionUpdate, error) {
	u, err := domain.ParseRegionUpdate(raw)
	if err != nil {
		return domain.RegionUpdate{}, err
	}

	if t.regions != nil && !t.regions.Known(u.Code) {
		return domain.RegionUpdate{}, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, u.Code)
	}

	t.logger.Debug("region update decoded", "region", u.Code, "index", u.Index, "grade", u.Grade)
	return u, nil
}
