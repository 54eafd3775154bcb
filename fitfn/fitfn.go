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

// Package fitfn 是目標函數層：把平衡模型的濃度預測轉成可優化的
// 純量殘差平方和（內嵌線性最小平方求係數），或完整的擬合明細。
//
// 策略是封閉的 tagged variant（Binding / Agg / Inhibitor），
// 不做繼承或動態派發：switch 必須窮舉。
package fitfn

import (
	"math"
	"strings"

	"github.com/zintix-labs/bindlab/bindmodel"
	"github.com/zintix-labs/bindlab/errs"
	"gonum.org/v1/gonum/mat"
)

// Kind 標記目標函數策略。
type Kind uint8

const (
	// KindBinding host–guest 結合：模型輸出複合物濃度列，回歸求每訊號係數。
	KindBinding Kind = iota
	// KindAgg 自聚集：三物種列以 (h+he/2, hs+he/2) 對稱合併後回歸。
	KindAgg
	// KindInhibitor 劑量反應：模型直接輸出預測訊號，無內層回歸。
	KindInhibitor
)

// Func 是一個可重複評估的目標函數實例：模型 + 設定旗標。
// 無內部狀態，同一參數向量重複評估結果恆等。
type Func struct {
	Key       string
	Kind      Kind
	Model     bindmodel.Model
	Normalise bool
	Flavour   bindmodel.Flavour
}

// Detailed 是一次完整評估的明細輸出。
type Detailed struct {
	Fit       [][]float64 // 重建的擬合曲線，signals × observations（與輸入 y 同座標系）
	Residuals [][]float64 // fit − y
	CoeffsRaw [][]float64 // 回歸係數，species × signals
	ConcRaw   [][]float64 // 實際進回歸的設計列
	Coeffs    [][]float64 // 含初始值補回/折併展開的最終係數
	Molefrac  [][]float64 // 展示用 molefraction（不含 host 列，由 fitter 補）
}

// NCoeffs 回傳回歸係數個數（統計引擎的自由度計算用）。
func (d *Detailed) NCoeffs() int {
	n := 0
	for _, row := range d.CoeffsRaw {
		n += len(row)
	}
	return n
}

// SSR 是優化器吃的純量目標：殘差平方和。
// 內層回歸退化時回傳 +Inf，讓 simplex 自行繞開該參數區域。
func (f *Func) SSR(params []float64, xdata, ydata [][]float64) float64 {
	d, err := f.Eval(params, xdata, ydata, nil, nil)
	if err != nil {
		return math.Inf(1)
	}
	ssr := 0.0
	for _, row := range d.Residuals {
		for _, v := range row {
			ssr += v * v
		}
	}
	return ssr
}

// Eval 做一次完整評估。
//
// ydataInit 是未平移資料的初始觀測行（係數補回用，可為 nil）。
// fixedCoeffs 非 nil 時跳過內層回歸、沿用外部給定的係數
// （統計引擎的敏感度擾動必須鎖住係數，否則信賴區間的意義會改變）。
func (f *Func) Eval(params []float64, xdata, ydata [][]float64, ydataInit []float64, fixedCoeffs [][]float64) (*Detailed, error) {
	switch f.Kind {
	case KindBinding:
		return f.evalBinding(params, xdata, ydata, ydataInit, fixedCoeffs)
	case KindAgg:
		return f.evalAgg(params, xdata, ydata, ydataInit, fixedCoeffs)
	case KindInhibitor:
		return f.evalInhibitor(params, xdata, ydata)
	}
	return nil, errs.Fatalf("unknown objective kind %d", f.Kind).AtStage(errs.StageConfig)
}

func (f *Func) evalBinding(params []float64, xdata, ydata [][]float64, ydataInit []float64, fixedCoeffs [][]float64) (*Detailed, error) {
	conc, molefrac := f.Model(params, xdata, f.Flavour)

	if f.Normalise {
		// 平移後第一列（free host）退化為全零基準，不進回歸
		conc = conc[1:]
	}

	coeffs := fixedCoeffs
	if coeffs == nil {
		var err error
		coeffs, err = lstsq(conc, ydata)
		if err != nil {
			return nil, errs.Wrap(err, "linear coefficient solve failed").AtStage(errs.StageRegression)
		}
	}

	// UV 未平移時吸收度貢獻不可為負
	if !f.Normalise && strings.Contains(f.Key, "uv") {
		for _, row := range coeffs {
			for j, v := range row {
				if v < 0 {
					row[j] = 0
				}
			}
		}
	}

	fit := reconstruct(conc, coeffs, len(ydata))
	res := residuals(fit, ydata)

	var h0Init float64
	if len(xdata) > 0 && len(xdata[0]) > 0 {
		h0Init = xdata[0][0]
	}
	formatted, err := f.FormatCoeffs(coeffs, ydataInit, h0Init)
	if err != nil {
		return nil, err
	}

	return &Detailed{
		Fit:       fit,
		Residuals: res,
		CoeffsRaw: coeffs,
		ConcRaw:   conc,
		Coeffs:    formatted,
		Molefrac:  molefrac,
	}, nil
}

func (f *Func) evalAgg(params []float64, xdata, ydata [][]float64, ydataInit []float64, fixedCoeffs [][]float64) (*Detailed, error) {
	conc, molefrac := f.Model(params, xdata, f.Flavour)

	// 三物種列合併為兩個回歸設計列：(h + he/2, hs + he/2)。
	// 堆疊端 monomer 的光譜環境視為自由態與堆疊內各佔一半。
	h, hs, he := conc[0], conc[1], conc[2]
	n := len(h)
	d0 := make([]float64, n)
	d1 := make([]float64, n)
	for i := 0; i < n; i++ {
		d0[i] = h[i] + he[i]/2
		d1[i] = hs[i] + he[i]/2
	}
	design := [][]float64{d0, d1}

	coeffs := fixedCoeffs
	if coeffs == nil {
		var err error
		coeffs, err = lstsq(design, ydata)
		if err != nil {
			return nil, errs.Wrap(err, "linear coefficient solve failed").AtStage(errs.StageRegression)
		}
	}

	fit := reconstruct(design, coeffs, len(ydata))
	res := residuals(fit, ydata)

	return &Detailed{
		Fit:       fit,
		Residuals: res,
		CoeffsRaw: coeffs,
		ConcRaw:   design,
		Coeffs:    bindmodel.Cloned(coeffs),
		Molefrac:  molefrac,
	}, nil
}

func (f *Func) evalInhibitor(params []float64, xdata, ydata [][]float64) (*Detailed, error) {
	fit, _ := f.Model(params, xdata, f.Flavour)
	res := residuals(fit, ydata)
	zero := [][]float64{{0}}
	return &Detailed{
		Fit:       fit,
		Residuals: res,
		CoeffsRaw: zero,
		ConcRaw:   [][]float64{{0}},
		Coeffs:    bindmodel.Cloned(zero),
		Molefrac:  nil,
	}, nil
}

// FormatX 回傳展示/繪圖用的 x 軸：結合與劑量反應模型為 guest/host 當量比
//（inhibitor 的 host 列恆為 1，比值就是 log 濃度列），聚集模型為 h0。
func (f *Func) FormatX(xdata [][]float64) []float64 {
	switch f.Kind {
	case KindBinding, KindInhibitor:
		h0, g0 := xdata[0], xdata[1]
		out := make([]float64, len(h0))
		for i := range h0 {
			out[i] = g0[i] / h0[i]
		}
		return out
	default:
		return append([]float64(nil), xdata[0]...)
	}
}

// FormatCoeffs 把 raw 回歸係數還原成「真實」係數：
//   - add/stat 風味把折併的次級係數展開成獨立一列（×2）
//   - 平移擬合把被扣掉的初始觀測值補回，並合成 free host 係數列
//   - UV 平移擬合另以 h0 初值正規化 host 列
func (f *Func) FormatCoeffs(coeffs [][]float64, ydataInit []float64, h0Init float64) ([][]float64, error) {
	c := bindmodel.Cloned(coeffs)

	if f.Flavour.FoldsSpecies() {
		if f.Normalise {
			// [c0] → [c0, 2·c0]
			c = [][]float64{c[0], scaled(c[0], 2)}
		} else {
			// [h, c1] → [h, c1, 2·c1]
			c = [][]float64{c[0], c[1], scaled(c[1], 2)}
		}
	}

	if !f.Normalise {
		return c, nil
	}
	if ydataInit == nil {
		return c, nil
	}

	h := append([]float64(nil), ydataInit...)
	if strings.Contains(f.Key, "uv") && h0Init != 0 {
		for i := range h {
			h[i] /= h0Init
		}
	}

	switch len(c) {
	case 1:
		// 1:1 系統
		return [][]float64{h, added(h, c[0])}, nil
	case 2:
		// 1:2 / 2:1 系統
		return [][]float64{h, added(h, c[0]), added(h, c[1])}, nil
	default:
		return nil, errs.Fatalf("unexpected coefficient rows %d for %s", len(c), f.Key).AtStage(errs.StageRegression)
	}
}

// ============================================================
// ** 內部線性代數 **
// ============================================================

// lstsq 解 design^T · C = ydata^T 的最小平方係數（C 為 species × signals）。
// 等價 Matlab 的矩陣除法 coeffs = conc \ y。
func lstsq(design, ydata [][]float64) ([][]float64, error) {
	p := len(design)
	if p == 0 {
		return nil, errs.NewWarn("empty regression design").AtStage(errs.StageRegression)
	}
	m := len(design[0])
	s := len(ydata)

	a := mat.NewDense(m, p, nil)
	for j, row := range design {
		for i, v := range row {
			a.Set(i, j, v)
		}
	}
	b := mat.NewDense(m, s, nil)
	for j, row := range ydata {
		for i, v := range row {
			b.Set(i, j, v)
		}
	}

	var c mat.Dense
	if err := c.Solve(a, b); err != nil {
		return nil, err
	}

	out := make([][]float64, p)
	for i := 0; i < p; i++ {
		out[i] = make([]float64, s)
		for j := 0; j < s; j++ {
			out[i][j] = c.At(i, j)
		}
	}
	return out, nil
}

// reconstruct 以 conc 與 coeffs 的線性組合還原擬合曲線（signals × observations）。
func reconstruct(design, coeffs [][]float64, signals int) [][]float64 {
	m := 0
	if len(design) > 0 {
		m = len(design[0])
	}
	fit := make([][]float64, signals)
	for s := 0; s < signals; s++ {
		row := make([]float64, m)
		for j := range design {
			cj := coeffs[j][s]
			for i := 0; i < m; i++ {
				row[i] += design[j][i] * cj
			}
		}
		fit[s] = row
	}
	return fit
}

func residuals(fit, ydata [][]float64) [][]float64 {
	out := make([][]float64, len(fit))
	for i := range fit {
		row := make([]float64, len(fit[i]))
		for j := range fit[i] {
			row[j] = fit[i][j] - ydata[i][j]
		}
		out[i] = row
	}
	return out
}

func scaled(v []float64, by float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * by
	}
	return out
}

func added(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
