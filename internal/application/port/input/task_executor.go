package input

import (
	"context"

	"epbm-autofill/internal/domain/entity"
)

type FillRunner interface {
	Run(ctx context.Context, rc entity.RunContext) entity.RunOutcome
	Start(ctx context.Context, rc entity.RunContext) (<-chan entity.RunOutcome, error)
}

type DiscoveryRunner interface {
	Discover(ctx context.Context, creds entity.Credentials) entity.DiscoveryOutcome
}
