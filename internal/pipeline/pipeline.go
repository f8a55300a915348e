// Package pipeline threads a problem through the transcription stages:
// support generation, transcription, assembly, solve, reconstruction.
// Each stage fully consumes the previous stage's output; the context
// object owns all intermediate state.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/infopt/internal/model"
	"github.com/san-kum/infopt/internal/nlp"
	"github.com/san-kum/infopt/internal/result"
	"github.com/san-kum/infopt/internal/solver"
	"github.com/san-kum/infopt/internal/transcribe"
)

// Pipeline drives one problem from definition to reconstructed result.
type Pipeline struct {
	logger *zap.Logger
	solver solver.Solver
}

// New builds a pipeline. A nil logger disables logging.
func New(logger *zap.Logger, s solver.Solver) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger, solver: s}
}

// Run transcribes, solves, and reconstructs. The returned result is
// populated with the best iterate even when the solve ends non-optimal;
// in that case the error wraps the status sentinel so callers can
// decide whether to retry.
func (p *Pipeline) Run(ctx context.Context, prob *model.Problem) (*result.Result, error) {
	log := p.logger.With(zap.String("problem", prob.Name))

	start := time.Now()
	tr, err := transcribe.Transcribe(prob)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", prob.Name, err)
	}

	nk := 1
	if tr.Xi != nil {
		nk = tr.Xi.Len()
	}
	log.Info("transcribed",
		zap.Int("time_supports", tr.Time.Len()),
		zap.Int("samples", nk),
		zap.Int("variables", tr.N),
		zap.Int("equalities", len(tr.Equalities)),
		zap.Int("inequalities", len(tr.Inequalities)),
		zap.Duration("elapsed", time.Since(start)),
	)

	prog := nlp.Assemble(tr)

	sol, err := p.solver.Solve(ctx, prog)
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", prob.Name, err)
	}
	log.Info("solved",
		zap.Stringer("status", sol.Status),
		zap.Float64("objective", sol.Objective),
		zap.Float64("max_violation", sol.MaxViolation),
		zap.Int("outer_iterations", sol.OuterIters),
		zap.Duration("runtime", sol.Runtime),
	)

	res, err := result.Reconstruct(tr, sol)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", prob.Name, err)
	}

	if serr := solver.StatusError(sol.Status); serr != nil {
		return res, fmt.Errorf("solve %s: %w", prob.Name, serr)
	}
	return res, nil
}
