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

package fitter_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/bindlab/bindmodel"
	"github.com/zintix-labs/bindlab/catalog"
	"github.com/zintix-labs/bindlab/fitter"
)

// titration 產生 host 固定、guest 遞增的滴定濃度表。
func titration(n int, h0 float64, gMax float64) [][]float64 {
	h := make([]float64, n)
	g := make([]float64, n)
	for i := 0; i < n; i++ {
		h[i] = h0
		g[i] = gMax * float64(i) / float64(n-1)
	}
	return [][]float64{h, g}
}

// synth 以模型 fit 輸出與給定線性係數組出無雜訊觀測值。
func synth(model bindmodel.Model, params []float64, xdata [][]float64, flavour bindmodel.Flavour, coeffs [][]float64) [][]float64 {
	fit, _ := model(params, xdata, flavour)
	n := len(fit[0])
	out := make([][]float64, len(coeffs))
	for s, c := range coeffs {
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := range c {
				row[i] += c[j] * fit[j][i]
			}
		}
		out[s] = row
	}
	return out
}

func TestParamSchemaCanonicalOrder(t *testing.T) {
	s := fitter.NewParamSchema([]string{"k12", "k11"})
	names := s.Names()
	if names[0] != "k11" || names[1] != "k12" {
		t.Fatalf("schema order = %v, want lexicographic", names)
	}
	vec := s.Vector(map[string]float64{"k11": 5000, "k12": 500})
	if vec[0] != 5000 || vec[1] != 500 {
		t.Fatalf("vector = %v, want [5000 500]", vec)
	}
	back := s.Map(vec)
	if back["k11"] != 5000 || back["k12"] != 500 {
		t.Fatalf("round trip = %v", back)
	}
	if !s.Matches(back) {
		t.Fatalf("Matches rejected its own Map output")
	}
	if s.Matches(map[string]float64{"k11": 1}) {
		t.Fatalf("Matches accepted missing key")
	}
}

func TestNewRejectsShapeMismatch(t *testing.T) {
	fn, err := catalog.Construct("nmr1to1", true, "")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	x := titration(10, 1e-3, 5e-3)
	y := [][]float64{make([]float64, 9)}
	if _, err := fitter.New(x, y, fn, true); err == nil {
		t.Fatalf("observation count mismatch not rejected")
	}
	ragged := [][]float64{make([]float64, 10), make([]float64, 7)}
	if _, err := fitter.New(ragged, [][]float64{make([]float64, 10)}, fn, true); err == nil {
		t.Fatalf("ragged xdata not rejected")
	}
}

func TestRun1to1RecoversConstant(t *testing.T) {
	const kTrue = 1000.0
	x := titration(12, 1e-3, 5e-3)
	coeffs := [][]float64{{7.80, 8.25}, {3.10, 4.65}}
	y := synth(bindmodel.NMR1to1, []float64{kTrue}, x, bindmodel.FlavourNone, coeffs)

	fn, err := catalog.Construct("nmr1to1", true, "")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	res, err := f.Run(map[string]float64{"k": 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	k := res.Params["k"]
	if math.Abs(k.Value-kTrue)/kTrue > 0.01 {
		t.Fatalf("recovered k = %g, want within 1%% of %g", k.Value, kTrue)
	}
	if k.Init != 100 {
		t.Fatalf("init recorded as %g, want 100", k.Init)
	}
	if res.StatsErr != "" {
		t.Fatalf("unexpected statistics failure: %s", res.StatsErr)
	}
	if k.Stderr < 0 {
		t.Fatalf("confidence interval %g is negative", k.Stderr)
	}
	if res.SSR > 1e-9 {
		t.Fatalf("noise-free data should fit exactly, SSR = %g", res.SSR)
	}
	if len(res.Fit) != len(y) || len(res.Fit[0]) != len(y[0]) {
		t.Fatalf("fit shape %dx%d, want %dx%d", len(res.Fit), len(res.Fit[0]), len(y), len(y[0]))
	}
	for i, row := range res.Fit {
		for j := range row {
			if math.Abs(row[j]-y[i][j]) > 1e-5 {
				t.Fatalf("fit[%d][%d] = %g, want %g", i, j, row[j], y[i][j])
			}
		}
	}
}

func TestRun1to1MolefracHostComplement(t *testing.T) {
	x := titration(10, 1e-3, 5e-3)
	y := synth(bindmodel.NMR1to1, []float64{800}, x, bindmodel.FlavourNone, [][]float64{{6.5, 9.0}})

	fn, _ := catalog.Construct("nmr1to1", true, "")
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	res, err := f.Run(map[string]float64{"k": 500})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Molefrac) != 2 {
		t.Fatalf("molefrac rows = %d, want 2", len(res.Molefrac))
	}
	for i := range res.Molefrac[0] {
		sum := 0.0
		for _, row := range res.Molefrac {
			sum += row[i]
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("obs %d: molefractions sum to %g, want 1", i, sum)
		}
	}
}

func TestRun1to2RecoversConstants(t *testing.T) {
	const k11True, k12True = 5000.0, 500.0
	x := titration(16, 1e-3, 8e-3)
	coeffs := [][]float64{{7.9, 8.4, 8.9}, {3.0, 4.2, 5.6}}
	y := synth(bindmodel.NMR1to2, []float64{k11True, k12True}, x, bindmodel.FlavourNone, coeffs)

	fn, err := catalog.Construct("nmr1to2", true, "")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	res, err := f.Run(map[string]float64{"k11": 1000, "k12": 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	k11 := res.Params["k11"].Value
	k12 := res.Params["k12"].Value
	if math.Abs(k11-k11True)/k11True > 0.05 {
		t.Fatalf("recovered k11 = %g, want within 5%% of %g", k11, k11True)
	}
	if math.Abs(k12-k12True)/k12True > 0.05 {
		t.Fatalf("recovered k12 = %g, want within 5%% of %g", k12, k12True)
	}
}

func TestRunNonCoopFitsSingleConstant(t *testing.T) {
	const k11True = 4000.0
	x := titration(14, 1e-3, 8e-3)
	coeffs := [][]float64{{7.5, 8.1, 8.8}}
	y := synth(bindmodel.NMR1to2, []float64{k11True}, x, bindmodel.FlavourNonCoop, coeffs)

	fn, err := catalog.Construct("nmr1to2", true, bindmodel.FlavourNonCoop)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	// simplex 是局部方法：這個地形在低 k 處有局部極小，起點要落在全域盆地內
	res, err := f.Run(map[string]float64{"k11": 3000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := res.Params["k12"]; ok {
		t.Fatalf("noncoop flavour must not report an independent k12")
	}
	k11 := res.Params["k11"].Value
	if math.Abs(k11-k11True)/k11True > 0.05 {
		t.Fatalf("recovered k11 = %g, want within 5%% of %g", k11, k11True)
	}
}

func TestRunDimerReportsDerivedKd(t *testing.T) {
	const keTrue = 200.0
	n := 12
	h0 := make([]float64, n)
	for i := 0; i < n; i++ {
		h0[i] = 1e-4 * math.Pow(1.5, float64(i))
	}
	x := [][]float64{h0}
	// 聚集回歸的設計列是 (h + he/2, hs + he/2)，合成資料也照這組基底
	fit, _ := bindmodel.NMRDimer([]float64{keTrue}, x, bindmodel.FlavourNone)
	y := [][]float64{make([]float64, n)}
	for i := 0; i < n; i++ {
		d0 := fit[0][i] + fit[2][i]/2
		d1 := fit[1][i] + fit[2][i]/2
		y[0][i] = 7.2*d0 + 8.6*d1
	}

	fn, err := catalog.Construct("nmrdimer", true, "")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	res, err := f.Run(map[string]float64{"ke": 50})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	ke := res.Params["ke"]
	if math.Abs(ke.Value-keTrue)/keTrue > 0.05 {
		t.Fatalf("recovered ke = %g, want within 5%% of %g", ke.Value, keTrue)
	}
	kd, ok := res.Params["kd"]
	if !ok {
		t.Fatalf("aggregation fit must report derived kd")
	}
	if !kd.Derived {
		t.Fatalf("kd must be flagged as derived")
	}
	if math.Abs(kd.Value-ke.Value/2) > 1e-12 {
		t.Fatalf("kd = %g, want ke/2 = %g", kd.Value, ke.Value/2)
	}
}

func TestRunStatsGuardsDegreesOfFreedom(t *testing.T) {
	// 平移擬合只回歸 1 個係數：3 個觀測值、1 個參數 → dof = 1，
	// 統計該拒絕但 fit 照常
	x := titration(3, 1e-3, 5e-3)
	y := synth(bindmodel.NMR1to1, []float64{900}, x, bindmodel.FlavourNone, [][]float64{{6.0, 8.5}})

	fn, _ := catalog.Construct("nmr1to1", true, "")
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	res, err := f.Run(map[string]float64{"k": 500})
	if err != nil {
		t.Fatalf("run must succeed even when statistics cannot: %v", err)
	}
	if res.StatsErr == "" {
		t.Fatalf("expected statistics failure with dof = 1")
	}
	if res.Params["k"].Stderr != 0 {
		t.Fatalf("stderr must stay zero when statistics failed, got %g", res.Params["k"].Stderr)
	}
}

func TestRunRejectsEmptyInit(t *testing.T) {
	fn, _ := catalog.Construct("nmr1to1", true, "")
	x := titration(10, 1e-3, 5e-3)
	y := synth(bindmodel.NMR1to1, []float64{900}, x, bindmodel.FlavourNone, [][]float64{{6.0, 8.5}})
	f, err := fitter.New(x, y, fn, true)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	if _, err := f.Run(nil); err == nil {
		t.Fatalf("empty initial guess not rejected")
	}
}
