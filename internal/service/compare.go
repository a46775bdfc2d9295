// internal/service/compare.go
package service

import (
	"context"

	compareprograms "advisory-engine/internal/stages/compare-programs"
)

// Compare explains the differences between two programs. Unlike the
// pipeline flows this surfaces upstream failures to the caller; there is
// no honest fallback text for a comparison.
func (s *Service) Compare(ctx context.Context, programAID, programBID int64) (*ComparisonResult, error) {
	ctx, finish := s.observeRun(ctx, "compare")
	result, err := s.compare(ctx, programAID, programBID)
	finish(err)
	return result, err
}

func (s *Service) compare(ctx context.Context, programAID, programBID int64) (*ComparisonResult, error) {
	programA, err := s.catalog.GetProgramByID(ctx, programAID)
	if err != nil {
		return nil, err
	}
	programB, err := s.catalog.GetProgramByID(ctx, programBID)
	if err != nil {
		return nil, err
	}

	output, err := s.comparator.Execute(ctx, &compareprograms.Input{
		ProgramA: programA,
		ProgramB: programB,
	})
	if err != nil {
		return nil, err
	}

	return &ComparisonResult{
		ProgramAID: programAID,
		ProgramBID: programBID,
		Comparison: output.Comparison,
		Cached:     output.Cached,
	}, nil
}
