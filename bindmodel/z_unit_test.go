// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bindmodel_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/bindlab/bindmodel"
)

func titration11(n int) [][]float64 {
	h0 := make([]float64, n)
	g0 := make([]float64, n)
	for i := 0; i < n; i++ {
		h0[i] = 1e-4 + float64(i)*(9e-4)/float64(n-1)
		g0[i] = 5e-4
	}
	return [][]float64{h0, g0}
}

func TestUV1to1Bounds(t *testing.T) {
	x := titration11(10)
	fit, _ := bindmodel.UV1to1([]float64{1000}, x, bindmodel.FlavourNone)
	h, hg := fit[0], fit[1]
	for i := range h {
		h0, g0 := x[0][i], x[1][i]
		if h[i] < 0 || h[i] > h0 {
			t.Fatalf("obs %d: free host %g outside [0, %g]", i, h[i], h0)
		}
		limit := math.Min(h0, g0)
		if hg[i] < 0 || hg[i] > limit+1e-15 {
			t.Fatalf("obs %d: complex %g outside [0, %g]", i, hg[i], limit)
		}
	}
}

func TestNMR1to1MolefracRowsSumWithHost(t *testing.T) {
	x := titration11(8)
	_, mf := bindmodel.NMR1to1([]float64{250}, x, bindmodel.FlavourNone)
	for i := range mf[0] {
		sum := mf[0][i] + mf[1][i]
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("obs %d: molefractions sum to %g, want 1", i, sum)
		}
	}
}

func TestNMR1to2MolefracSum(t *testing.T) {
	x := titration11(12)
	_, mf := bindmodel.NMR1to2([]float64{5000, 500}, x, bindmodel.FlavourNone)
	for i := range mf[0] {
		sum := mf[0][i] + mf[1][i] + mf[2][i]
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("obs %d: molefractions sum to %g, want 1", i, sum)
		}
	}
}

func TestCubicRootsResubstitution(t *testing.T) {
	cases := [][4]float64{
		{2.5e6, 1.2e3, -0.4, -5e-4},
		{1, -6, 11, -6}, // roots 1, 2, 3
		{4, 0, -1, 0},
	}
	for _, c := range cases {
		a, b, cc, d := c[0], c[1], c[2], c[3]
		roots := bindmodel.CubicRoots(a, b, cc, d)
		if len(roots) != 3 {
			t.Fatalf("cubic returned %d roots", len(roots))
		}
		for _, r := range roots {
			v := complex(a, 0)*r*r*r + complex(b, 0)*r*r + complex(cc, 0)*r + complex(d, 0)
			scale := math.Max(1, math.Abs(a))
			if cmplxAbs(v)/scale > 1e-8 {
				t.Fatalf("root %v does not satisfy cubic: residual %v", r, v)
			}
		}
	}
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

func TestPhysicalRootPolicy(t *testing.T) {
	roots := []complex128{complex(3, 0), complex(1, 0), complex(-2, 0), complex(0.5, 1)}
	if got := bindmodel.PhysicalRoot(roots); got != 1 {
		t.Fatalf("want minimum non-negative real root 1, got %g", got)
	}
	// 無正實根時落到 0 的退化預設值
	if got := bindmodel.PhysicalRoot([]complex128{complex(-1, 0), complex(2, 3)}); got != 0 {
		t.Fatalf("degenerate case must return 0, got %g", got)
	}
	if got := bindmodel.PhysicalRoot(nil); got != 0 {
		t.Fatalf("empty roots must return 0, got %g", got)
	}
}

func TestRootSelectionDeterministic(t *testing.T) {
	x := titration11(10)
	ref, _ := bindmodel.NMR1to2([]float64{5000, 500}, x, bindmodel.FlavourNone)
	for trial := 0; trial < 5; trial++ {
		got, _ := bindmodel.NMR1to2([]float64{5000, 500}, x, bindmodel.FlavourNone)
		for i := range ref {
			for j := range ref[i] {
				if got[i][j] != ref[i][j] {
					t.Fatalf("trial %d: non-deterministic value at [%d][%d]", trial, i, j)
				}
			}
		}
	}
}

func TestNonCoopForcesStatisticalRatio(t *testing.T) {
	x := titration11(10)
	// noncoop 只吃一個參數，內部鎖 k12 = k11/4
	forced, _ := bindmodel.NMR1to2([]float64{4000}, x, bindmodel.FlavourNonCoop)
	explicit, _ := bindmodel.NMR1to2([]float64{4000, 1000}, x, bindmodel.FlavourNone)
	for i := range forced {
		for j := range forced[i] {
			if math.Abs(forced[i][j]-explicit[i][j]) > 1e-14 {
				t.Fatalf("noncoop result differs from explicit k12=k11/4 at [%d][%d]", i, j)
			}
		}
	}
}

func TestStatFlavourFoldsSpecies(t *testing.T) {
	x := titration11(10)
	fit, mf := bindmodel.UV1to2([]float64{4000}, x, bindmodel.FlavourStat)
	if len(fit) != 2 {
		t.Fatalf("stat flavour must fold HG2 into HG row: got %d fit rows", len(fit))
	}
	if len(mf) != 3 {
		t.Fatalf("display molefractions stay unfolded: got %d rows", len(mf))
	}
}

func TestDimerZeroKeShortCircuit(t *testing.T) {
	h0 := []float64{1e-4, 1e-3, 1e-2}
	for _, model := range []bindmodel.Model{bindmodel.NMRDimer, bindmodel.UVDimer} {
		fit, mf := model([]float64{0}, [][]float64{h0}, bindmodel.FlavourNone)
		if len(fit) != 3 || len(mf) != 3 {
			t.Fatalf("dimer shape wrong: fit=%d mf=%d", len(fit), len(mf))
		}
		for i := range fit {
			if len(fit[i]) != len(h0) {
				t.Fatalf("row %d has %d obs, want %d", i, len(fit[i]), len(h0))
			}
			for j := range fit[i] {
				if fit[i][j] != 0 {
					t.Fatalf("ke=0 must give all-zero concentrations, got %g", fit[i][j])
				}
			}
		}
	}
}

func TestDimerPopulationsPhysical(t *testing.T) {
	h0 := []float64{1e-4, 1e-3, 1e-2, 1e-1}
	fit, _ := bindmodel.NMRDimer([]float64{200}, [][]float64{h0}, bindmodel.FlavourNone)
	for i := range fit {
		for j := range fit[i] {
			if fit[i][j] < 0 || math.IsNaN(fit[i][j]) {
				t.Fatalf("population [%d][%d] unphysical: %g", i, j, fit[i][j])
			}
		}
	}
}

func TestInhibitorResponseMidpoint(t *testing.T) {
	// 在 logIC50 處 response 恰為 50
	x := [][]float64{{1, 1, 1}, {-7, -6, -5}}
	fit, _ := bindmodel.InhibitorResponse([]float64{1.0, -6.0}, x, bindmodel.FlavourNone)
	if math.Abs(fit[0][1]-50) > 1e-9 {
		t.Fatalf("response at logIC50 should be 50, got %g", fit[0][1])
	}
	if fit[0][0] >= fit[0][1] || fit[0][1] >= fit[0][2] {
		t.Fatalf("response must increase with inhibitor axis here: %v", fit[0])
	}
}
