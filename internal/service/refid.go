package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/port"
)

const (
	refIDAttempts   = 5
	refIDRandDigits = int64(1e14) // 14-digit candidate space
)

// RefIDGenerator produces customer-facing reference ids: digit strings
// of length 14 to 16, unique across all transfers. The uniqueness
// pre-check here is best effort; the storage unique index is the
// authority and insert conflicts are retried by the caller.
type RefIDGenerator struct {
	transfers port.TransferStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRefIDGenerator creates a reference id generator.
func NewRefIDGenerator(transfers port.TransferStore, metrics *observability.Metrics, logger *zap.Logger) *RefIDGenerator {
	return &RefIDGenerator{transfers: transfers, metrics: metrics, logger: logger}
}

// Generate returns a candidate reference id. It never fails: when the
// pre-check cannot be consulted the candidate is used optimistically,
// and after refIDAttempts collisions a timestamp-salted fallback is
// returned.
func (g *RefIDGenerator) Generate(ctx context.Context) string {
	ctx, span := tracer.Start(ctx, "RefIDGenerator.Generate")
	defer span.End()

	for attempt := 0; attempt < refIDAttempts; attempt++ {
		candidate := fmt.Sprintf("%014d", rand.Int63n(refIDRandDigits))

		exists, err := g.transfers.ExistsByRefID(ctx, candidate)
		if err != nil {
			g.logger.Warn("ref id pre-check unavailable, using candidate optimistically",
				zap.Error(err),
			)
			return candidate
		}
		if !exists {
			return candidate
		}

		g.metrics.IncrRefIDCollision()
		g.logger.Info("ref id collision", zap.Int("attempt", attempt+1))
	}

	// 12 random digits plus the last 4 digits of the current unix
	// millisecond clock: 16 digits total.
	return fmt.Sprintf("%012d%04d", rand.Int63n(1e12), time.Now().UnixMilli()%10000)
}
