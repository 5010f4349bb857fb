package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func newRefIDGenerator(transfers *mockTransferStore) *service.RefIDGenerator {
	return service.NewRefIDGenerator(transfers, observability.NewMetrics(), zap.NewNop())
}

func TestGenerateShape(t *testing.T) {
	g := newRefIDGenerator(&mockTransferStore{})

	for i := 0; i < 100; i++ {
		id := g.Generate(context.Background())
		if len(id) < 14 || len(id) > 16 {
			t.Fatalf("len(%q) = %d, want 14-16", id, len(id))
		}
		if !allDigits(id) {
			t.Fatalf("%q contains non-digit characters", id)
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	checks := 0
	transfers := &mockTransferStore{
		existsByRefIDFn: func(ctx context.Context, refID string) (bool, error) {
			checks++
			return checks <= 2, nil // first two candidates collide
		},
	}
	g := newRefIDGenerator(transfers)

	id := g.Generate(context.Background())
	if len(id) != 14 {
		t.Errorf("len(%q) = %d, want 14 (random candidate)", id, len(id))
	}
	if checks != 3 {
		t.Errorf("pre-checks = %d, want 3", checks)
	}
}

func TestGenerateFallbackAfterExhaustedAttempts(t *testing.T) {
	transfers := &mockTransferStore{
		existsByRefIDFn: func(ctx context.Context, refID string) (bool, error) {
			return true, nil // every candidate collides
		},
	}
	g := newRefIDGenerator(transfers)

	id := g.Generate(context.Background())
	if len(id) != 16 {
		t.Errorf("len(%q) = %d, want 16 (timestamp fallback)", id, len(id))
	}
	if !allDigits(id) {
		t.Errorf("%q contains non-digit characters", id)
	}
}

func TestGenerateSurvivesStoreOutage(t *testing.T) {
	transfers := &mockTransferStore{
		existsByRefIDFn: func(ctx context.Context, refID string) (bool, error) {
			return false, &domain.ErrStorage{Store: "transfers"}
		},
	}
	g := newRefIDGenerator(transfers)

	id := g.Generate(context.Background())
	if len(id) != 14 || !allDigits(id) {
		t.Errorf("got %q, want an optimistic 14-digit candidate", id)
	}
}
