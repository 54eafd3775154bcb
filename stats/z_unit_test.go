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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/bindlab/stats"
)

// lineInput 組一個單參數線性模型的估計輸入：fit = p·x。
func lineInput(p float64, n int, residual float64) stats.EstimateInput {
	x := make([]float64, n)
	fit := make([]float64, n)
	res := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i + 1)
		fit[i] = p * x[i]
		res[i] = residual
	}
	return stats.EstimateInput{
		Params: []float64{p},
		Eval: func(params []float64) ([][]float64, error) {
			out := make([]float64, n)
			for i := range out {
				out[i] = params[0] * x[i]
			}
			return [][]float64{out}, nil
		},
		Fit:       [][]float64{fit},
		Residuals: [][]float64{res},
		NCoeffs:   0,
		YSize:     n,
	}
}

func TestEstimateLinearModel(t *testing.T) {
	ci, err := stats.Estimate(lineInput(2.0, 20, 0.05))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(ci) != 1 {
		t.Fatalf("ci length = %d, want 1", len(ci))
	}
	if ci[0] <= 0 || math.IsInf(ci[0], 0) || math.IsNaN(ci[0]) {
		t.Fatalf("ci = %g, want positive finite", ci[0])
	}

	// 殘差加倍 → SSR 四倍 → sigma 兩倍 → CI 兩倍
	ci2, err := stats.Estimate(lineInput(2.0, 20, 0.10))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if math.Abs(ci2[0]/ci[0]-2) > 1e-6 {
		t.Fatalf("doubling residuals scaled ci by %g, want 2", ci2[0]/ci[0])
	}
}

func TestEstimateRejectsSmallDof(t *testing.T) {
	in := lineInput(2.0, 2, 0.05) // dof = 2 − 1 − 0 = 1
	if _, err := stats.Estimate(in); err == nil {
		t.Fatalf("dof = 1 not rejected")
	}
}

func TestEstimateRejectsZeroParameter(t *testing.T) {
	in := lineInput(0, 20, 0.05)
	if _, err := stats.Estimate(in); err == nil {
		t.Fatalf("zero parameter gives a zero perturbation step, must fail")
	}
}

func TestEstimateRejectsDegenerateSensitivity(t *testing.T) {
	// 兩參數只以和的形式進模型 → 敏感度列相同 → Gram 奇異
	n := 20
	x := make([]float64, n)
	fit := make([]float64, n)
	res := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i + 1)
		fit[i] = 3 * x[i]
		res[i] = 0.01
	}
	in := stats.EstimateInput{
		Params: []float64{1.5, 1.5},
		Eval: func(params []float64) ([][]float64, error) {
			out := make([]float64, n)
			for i := range out {
				out[i] = (params[0] + params[1]) * x[i]
			}
			return [][]float64{out}, nil
		},
		Fit:       [][]float64{fit},
		Residuals: [][]float64{res},
		NCoeffs:   0,
		YSize:     n,
	}
	if _, err := stats.Estimate(in); err == nil {
		t.Fatalf("non-identifiable parameters not rejected")
	}
}

func reportFixture() *stats.FitReport {
	return &stats.FitReport{
		Summary: &stats.SummaryReport{
			ModelKey:  "nmr1to1",
			Flavour:   "none",
			Normalise: true,
			Converged: true,
			SSR:       1.2e-9,
			Signals:   2,
			Obs:       12,
			Time:      42 * time.Millisecond,
		},
		Params: &stats.ParamsReport{
			Names: []string{"k"},
			Values: map[string]stats.Param{
				"k": {Value: 1023.4, StderrPct: 1.8, Init: 100},
			},
		},
		Curve: &stats.CurveReport{
			X:         []float64{0, 0.5, 1.0},
			Fit:       [][]float64{{0, 0.1, 0.2}, {0, 0.3, 0.5}},
			Residuals: [][]float64{{0.01, -0.01, 0.02}, {0, 0.01, -0.02}},
		},
	}
}

func TestReportDoneDerivesResidualStats(t *testing.T) {
	r := reportFixture()
	ydata := [][]float64{{0, 0.11, 0.22}, {0, 0.31, 0.48}}
	r.Done(ydata)
	if len(r.Summary.RMS) != 2 {
		t.Fatalf("RMS rows = %d, want 2", len(r.Summary.RMS))
	}
	if r.Summary.RMSTotal <= 0 {
		t.Fatalf("RMSTotal = %g, want positive", r.Summary.RMSTotal)
	}
	for i, c := range r.Summary.CovFit {
		if c < 0 {
			t.Fatalf("CovFit[%d] = %g, want non-negative", i, c)
		}
	}
}

func TestYAMLRenderFlowStyleInnermost(t *testing.T) {
	r := reportFixture()
	var buf bytes.Buffer
	if err := r.WriteWith(&buf, &stats.YAMLFitReportRender{}); err != nil {
		t.Fatalf("yaml render: %v", err)
	}
	out := buf.String()
	// 一維序列要是 flow style
	if !strings.Contains(out, "[0, 0.5, 1]") {
		t.Fatalf("innermost sequence not in flow style:\n%s", out)
	}
	// 二維外層維持 block style
	if strings.Contains(out, "[[") {
		t.Fatalf("outer sequence collapsed to flow style:\n%s", out)
	}
}

func TestStdOutTableShape(t *testing.T) {
	r := reportFixture()
	// fmtTable 經 StdOut 走 stdout，這裡改驗 WriteWith JSON 路徑不炸即可
	var buf bytes.Buffer
	if err := r.WriteWith(&buf, &stats.JsonFitReportRender{}); err != nil {
		t.Fatalf("json render: %v", err)
	}
	if !strings.Contains(buf.String(), `"ModelKey":"nmr1to1"`) {
		t.Fatalf("json output missing model key:\n%s", buf.String())
	}
}
