package history

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, limit, offset int) ([]*Run, error)
	Count(ctx context.Context) (int, error)
	Start(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, outputs Outputs) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
}
