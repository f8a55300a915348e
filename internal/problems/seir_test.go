package problems

import (
	"math"
	"testing"

	"github.com/san-kum/infopt/internal/model"
	"github.com/san-kum/infopt/internal/transcribe"
)

func TestSEIRShape(t *testing.T) {
	p := DefaultParams()
	p.Points = 11
	p.Samples = 4

	prob, err := BuildSEIR(p)
	if err != nil {
		t.Fatal(err)
	}

	tr, err := transcribe.Transcribe(prob)
	if err != nil {
		t.Fatal(err)
	}

	nt, nk := tr.Time.Len(), tr.Xi.Len()
	if nt != 11 || nk != 4 {
		t.Fatalf("support sizes: got (%d, %d), want (11, 4)", nt, nk)
	}

	// s, e, i, r, si over the cross product; u and budget excess over time.
	wantN := 5*nt*nk + 2*nt
	if tr.N != wantN {
		t.Errorf("decision vector size: got %d, want %d", tr.N, wantN)
	}

	// 5 ODE/defining equations per (t, xi) plus 4 initial conditions per sample.
	wantEq := 5*nt*nk + 4*nk
	if len(tr.Equalities) != wantEq {
		t.Errorf("equalities: got %d, want %d", len(tr.Equalities), wantEq)
	}

	// Pointwise excess per (t, xi) plus one integral budget.
	wantIneq := nt*nk + 1
	if len(tr.Inequalities) != wantIneq {
		t.Errorf("inequalities: got %d, want %d", len(tr.Inequalities), wantIneq)
	}
}

func TestSEIRInitialConditionsPinExactly(t *testing.T) {
	p := DefaultParams()
	p.Points = 6
	p.Samples = 3

	prob, err := BuildSEIR(p)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := transcribe.Transcribe(prob)
	if err != nil {
		t.Fatal(err)
	}

	e0 := 1 / p.Population
	s0 := 1 - e0

	// Populate t=0 supports with the exact initial fractions; every
	// pinned constraint must then have zero residual.
	x := make([]float64, tr.N)
	for k := 0; k < tr.Xi.Len(); k++ {
		for _, vc := range []struct {
			id  string
			val float64
		}{{"s", s0}, {"e", e0}, {"i", 0}, {"r", 0}} {
			idx, err := tr.FlatIndex(model.VarID(vc.id), 0, k)
			if err != nil {
				t.Fatal(err)
			}
			x[idx] = vc.val
		}
	}

	for _, s := range tr.Equalities {
		if len(s.Deps) != 1 {
			continue
		}
		if r := s.Eval(x); math.Abs(r) > 1e-12 {
			t.Errorf("%s: residual %g with exact initial fractions", s.Name, r)
		}
	}
}

func TestSIRBuilds(t *testing.T) {
	p := DefaultParams()
	p.Points = 6
	p.Samples = 1

	prob, err := BuildSIR(p)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := transcribe.Transcribe(prob)
	if err != nil {
		t.Fatal(err)
	}

	nt := tr.Time.Len()
	// s, i, r over (t, 1 sample); u and excess over time.
	if tr.N != 3*nt+2*nt {
		t.Errorf("decision vector size: got %d, want %d", tr.N, 5*nt)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := r.List()
	if len(names) != 2 || names[0] != "seir" || names[1] != "sir" {
		t.Errorf("registry names: got %v", names)
	}

	if _, err := r.Get("seir", DefaultParams()); err != nil {
		t.Errorf("seir should build: %v", err)
	}
	if _, err := r.Get("nope", DefaultParams()); err == nil {
		t.Error("unknown problem should error")
	}
}
