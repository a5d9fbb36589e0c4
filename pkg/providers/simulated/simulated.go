// Package simulated provides deterministic offline signal adapters. They
// stand in for the real backends when no API keys are configured and every
// result they produce is flagged as simulated.
package simulated

import (
	"context"

	"github.com/veriscope/veriscope/pkg/providers"
)

type Analyzer struct{}

func (a *Analyzer) Name() string { return "simulated" }

func (a *Analyzer) Analyze(ctx context.Context, req providers.Request) (providers.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return providers.Analysis{}, err
	}
	return providers.SimulatedAnalysis(req.Aspect), nil
}

type Verifier struct{}

func (v *Verifier) Name() string { return "simulated" }

func (v *Verifier) Verify(ctx context.Context, claims []string) (providers.Verification, error) {
	if err := ctx.Err(); err != nil {
		return providers.Verification{}, err
	}
	return providers.SimulatedVerification(claims), nil
}
