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

// Package fitter 是擬合驅動器：持有一組資料與一個目標函數實例，
// 跑 derivative-free 非線性最小化，前後處理資料並組裝最終結果。
//
// 一個 Fitter 實例對應一次獨立擬合（dataset + initial guess）。
// 重跑 Run 會覆寫前次結果；multi-start 請為每次嘗試建新的 Fitter。
package fitter

import (
	"time"

	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/fitfn"
	"github.com/zintix-labs/bindlab/numutil"
	"gonum.org/v1/gonum/optimize"
)

// 目標函數收斂容忍度。內層回歸 + root 選擇讓目標不可微，
// 只能用 simplex；容忍度壓極緊把收斂判準交給 simplex 塌縮。
const convergeTol = 1e-18

// 單次擬合的 simplex 迭代預算。
const maxIters = 20000

// ParamResult 是單一參數的最終結果。
type ParamResult struct {
	Value   float64 `json:"value"`
	Stderr  float64 `json:"stderr"` // 95% 信賴區間半寬，佔擬合值的百分比
	Init    float64 `json:"init"`
	Derived bool    `json:"derived,omitempty"` // 由其他參數推導（非獨立擬合）
}

// Result 是一次成功 Run 的完整輸出。建立後不再變動。
type Result struct {
	Params    map[string]ParamResult `json:"params"`
	Fit       [][]float64            `json:"fit"`       // 反平移後的擬合曲線，與輸入 y 同形
	Residuals [][]float64            `json:"residuals"` // 擬合座標系下的殘差
	Coeffs    [][]float64            `json:"coeffs"`    // 最終（還原後）線性係數
	Molefrac  [][]float64            `json:"molefrac"`  // 首列為合成的 free host：1 − Σ其他物種
	Time      time.Duration          `json:"time"`      // 優化器 wall-clock
	Converged bool                   `json:"converged"` // 是否在迭代預算內確認收斂
	SSR       float64                `json:"ssr"`
	StatsErr  string                 `json:"stats_err,omitempty"` // 統計階段失敗原因（fit 本身成功）
}

// Fitter 驅動一次擬合。欄位在 Run 中一次性填好。
type Fitter struct {
	xdata [][]float64
	ydata [][]float64
	fn    *fitfn.Func

	normalise bool
	schema    *ParamSchema

	result *Result
	// 統計引擎需要的原始向量與擬合座標系殘差
	paramsRaw []float64
	detailed  *fitfn.Detailed
}

// New 建立 Fitter 並做形狀檢查（fail fast，不進優化器）。
func New(xdata, ydata [][]float64, fn *fitfn.Func, normalise bool) (*Fitter, error) {
	if fn == nil {
		return nil, errs.NewFatal("objective function required").AtStage(errs.StageConfig)
	}
	xObs, ok := numutil.Rectangular(xdata)
	if !ok {
		return nil, errs.NewFatal("xdata must be a rectangular variable × observation array").AtStage(errs.StageConfig)
	}
	yObs, ok := numutil.Rectangular(ydata)
	if !ok {
		return nil, errs.NewFatal("ydata must be a rectangular signal × observation array").AtStage(errs.StageConfig)
	}
	if xObs != yObs {
		return nil, errs.Fatalf("observation count mismatch: xdata has %d, ydata has %d", xObs, yObs).AtStage(errs.StageConfig)
	}
	return &Fitter{
		xdata:     numutil.Clone(xdata),
		ydata:     numutil.Clone(ydata),
		fn:        fn,
		normalise: normalise,
	}, nil
}

// Schema 回傳本次擬合的參數 schema（Run 之後才非 nil）。
func (f *Fitter) Schema() *ParamSchema { return f.schema }

// Result 回傳最後一次成功 Run 的結果。
func (f *Fitter) Result() *Result { return f.result }

// Func 回傳此 Fitter 綁定的目標函數。
func (f *Fitter) Func() *fitfn.Func { return f.fn }

// preprocess 依設定平移 y 序列（扣除初始觀測行）。
func (f *Fitter) preprocess(ydata [][]float64) [][]float64 {
	if f.normalise {
		return numutil.Normalise(ydata)
	}
	return numutil.Clone(ydata)
}

// postprocess 把平移量加回擬合曲線。
func (f *Fitter) postprocess(yfit [][]float64) [][]float64 {
	if f.normalise {
		return numutil.Denormalise(f.ydata, yfit)
	}
	return yfit
}

// Run 執行完整擬合流程：
// schema 定序 → 平移 → Nelder–Mead 最小化 → 最優點完整評估 →
// 反平移 → host molefraction 合成 → 統計引擎 → 組裝結果。
//
// 優化器在迭代預算內沒確認收斂不是硬錯誤：照樣回報最佳點，
// Converged 旗標告訴呼叫端收斂未經確認。
// 統計階段失敗也不是硬錯誤：fit 成功、誤差棒不可用（StatsErr）。
func (f *Fitter) Run(paramsInit map[string]float64) (*Result, error) {
	if len(paramsInit) == 0 {
		return nil, errs.NewFatal("initial parameter guess required").AtStage(errs.StageConfig)
	}
	names := make([]string, 0, len(paramsInit))
	for n := range paramsInit {
		names = append(names, n)
	}
	f.schema = NewParamSchema(names)
	p0 := f.schema.Vector(paramsInit)

	x := f.xdata
	y := f.preprocess(f.ydata)

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			return f.fn.SSR(p, x, y)
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   convergeTol,
			Iterations: 50,
		},
		MajorIterations: maxIters,
	}

	tic := time.Now()
	opt, err := optimize.Minimize(problem, p0, settings, &optimize.NelderMead{})
	elapsed := time.Since(tic)
	if opt == nil {
		return nil, errs.Wrap(err, "optimizer failed before producing a point").AtStage(errs.StageOptimize)
	}
	converged := opt.Status == optimize.FunctionConvergence || opt.Status == optimize.GradientThreshold
	if err != nil && opt.Status != optimize.IterationLimit {
		// 非收斂類錯誤（例如目標回傳 NaN）仍帶出最佳點，但標記未收斂
		converged = false
	}

	// 最優點的完整評估
	ydataInit := initialColumn(f.ydata)
	det, err := f.fn.Eval(opt.X, x, y, ydataInit, nil)
	if err != nil {
		return nil, errs.Wrap(err, "detailed evaluation at optimum failed")
	}

	f.paramsRaw = append([]float64(nil), opt.X...)
	f.detailed = det

	res := &Result{
		Fit:       f.postprocess(det.Fit),
		Residuals: det.Residuals,
		Coeffs:    det.Coeffs,
		Molefrac:  withHostRow(det.Molefrac),
		Time:      elapsed,
		Converged: converged,
		SSR:       numutil.SSR(det.Residuals),
	}

	// 統計引擎：fit 成功後誤差棒才有意義；失敗只記原因
	ci, statsErr := f.statistics()

	params := make(map[string]ParamResult, f.schema.Len())
	for i, name := range f.schema.Names() {
		pr := ParamResult{
			Value: opt.X[i],
			Init:  paramsInit[name],
		}
		if statsErr == nil {
			pr.Stderr = ci[i]
		}
		params[name] = pr
	}
	if statsErr != nil {
		res.StatsErr = statsErr.Error()
	}

	// 聚集模型額外回報 Kd = Ke/2（二聚化常數），推導值非獨立擬合
	if f.fn.Kind == fitfn.KindAgg {
		if ke, ok := params["ke"]; ok {
			params["kd"] = ParamResult{
				Value:   ke.Value / 2,
				Stderr:  ke.Stderr / 2,
				Init:    ke.Init / 2,
				Derived: true,
			}
		}
	}
	res.Params = params

	f.result = res
	return res, nil
}

// initialColumn 取每列第一個觀測值。
func initialColumn(data [][]float64) []float64 {
	out := make([]float64, len(data))
	for i, row := range data {
		if len(row) > 0 {
			out[i] = row[0]
		}
	}
	return out
}

// withHostRow 合成 free host 列並放到最前面：1 − Σ複合物 molefraction。
// 模型 display 輸出的首列（模型自己的 host 列）丟棄，由這裡統一合成，
// 保證 host 列永遠與其餘列互補、每觀測點加總為 1。
func withHostRow(molefrac [][]float64) [][]float64 {
	if len(molefrac) < 2 {
		return molefrac
	}
	complexes := molefrac[1:]
	n := len(complexes[0])
	host := make([]float64, n)
	for i := 0; i < n; i++ {
		host[i] = 1
		for _, row := range complexes {
			host[i] -= row[i]
		}
	}
	out := make([][]float64, 0, len(complexes)+1)
	out = append(out, host)
	for _, row := range complexes {
		out = append(out, append([]float64(nil), row...))
	}
	return out
}
