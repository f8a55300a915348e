package nlp

import (
	"github.com/san-kum/infopt/internal/transcribe"
)

// Assemble flattens a transcription into a solver-ready program. The
// transcription's guess becomes the initial iterate.
func Assemble(tr *transcribe.Transcription) *Problem {
	p := &Problem{
		N:         tr.N,
		Lower:     tr.Lower,
		Upper:     tr.Upper,
		Objective: fromScalar(tr.Objective),
		EqCons:    make([]Func, 0, len(tr.Equalities)),
		IneqCons:  make([]Func, 0, len(tr.Inequalities)),
		X0:        append([]float64(nil), tr.Guess...),
	}
	for _, s := range tr.Equalities {
		p.EqCons = append(p.EqCons, fromScalar(s))
	}
	for _, s := range tr.Inequalities {
		p.IneqCons = append(p.IneqCons, fromScalar(s))
	}
	return p
}

func fromScalar(s transcribe.Scalar) Func {
	return Func{Name: s.Name, Eval: s.Eval, Deps: s.Deps}
}
