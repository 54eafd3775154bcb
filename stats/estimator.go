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

// Package stats 是擬合後統計引擎：以有限差分敏感度估參數標準誤，
// 換算 95% 信賴區間；另提供擬合報告的表格/JSON/YAML 輸出。
package stats

import (
	"math"

	"github.com/zintix-labs/bindlab/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 擾動用相對步長
const delta = 1e-6

// 信賴水準 95%，雙尾
const confidence = 0.95

// EstimateInput 是一次誤差估計所需的全部輸入。
// 引擎本身無狀態：同輸入必得同輸出。
type EstimateInput struct {
	// Params 最優參數向量（正準順序）
	Params []float64
	// Eval 以給定參數向量重算擬合曲線（與 Fit 同座標系）。
	// 合約：內層線性係數必須沿用最優點的值、不得重解——
	// 重解會改變敏感度的意義，信賴區間就不再是報告的那個量。
	Eval func(params []float64) ([][]float64, error)
	// Fit 最優點的擬合曲線
	Fit [][]float64
	// Residuals 最優點殘差
	Residuals [][]float64
	// NCoeffs 內層回歸係數個數（自由度扣項）
	NCoeffs int
	// YSize 應變數觀測值總數（signals × observations）
	YSize int
}

// Estimate 以 delta-method 估每個參數的 95% 信賴區間，
// 回傳相對百分比（半寬 / 擬合值 × 100）。
//
// 流程：
//  1. 逐參數做相對 1e-6 擾動，重算擬合曲線（係數鎖定）
//  2. 差商攤平成敏感度向量
//  3. 組 P×P Gram 矩陣並求逆（奇異 → 統計階段錯誤，不產出垃圾值）
//  4. 自由度 = 觀測值數 − 參數數 − 係數數；≤ 1 時報錯不硬除
//  5. sigma = sqrt(diag(M⁻¹)·SSR/(dof−1))，半寬 = t(dof, 0.975)·sigma
func Estimate(in EstimateInput) ([]float64, error) {
	p := len(in.Params)
	if p == 0 {
		return nil, errs.NewWarn("no parameters to estimate").AtStage(errs.StageStats)
	}

	flatFit := flatten(in.Fit)

	// 1–2. 敏感度向量
	diffs := make([][]float64, p)
	for i, pi := range in.Params {
		shifted := pi * (1 + delta)
		denom := shifted - pi
		if denom == 0 {
			return nil, errs.Fatalf("zero finite-difference step for parameter %d (value %g)", i, pi).AtStage(errs.StageStats)
		}
		perturbed := append([]float64(nil), in.Params...)
		perturbed[i] = shifted

		fitShift, err := in.Eval(perturbed)
		if err != nil {
			return nil, errs.Wrap(err, "perturbed evaluation failed").AtStage(errs.StageStats)
		}
		flatShift := flatten(fitShift)
		if len(flatShift) != len(flatFit) {
			return nil, errs.NewFatal("perturbed fit shape mismatch").AtStage(errs.StageStats)
		}
		d := make([]float64, len(flatFit))
		for j := range d {
			d[j] = (flatShift[j] - flatFit[j]) / denom
		}
		diffs[i] = d
	}

	// 3. Gram 矩陣與逆
	m := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			m.Set(i, j, floats.Dot(diffs[i], diffs[j]))
		}
	}
	var mInv mat.Dense
	if err := mInv.Inverse(m); err != nil {
		return nil, errs.Wrap(err, "singular sensitivity matrix: parameters may be non-identifiable").AtStage(errs.StageStats)
	}

	// 4. 自由度
	dof := in.YSize - p - in.NCoeffs
	if dof <= 1 {
		return nil, errs.Fatalf("degrees of freedom %d too small for error estimate", dof).AtStage(errs.StageStats)
	}

	// 5. 標準差與信賴區間
	ssr := 0.0
	for _, row := range in.Residuals {
		ssr += floats.Dot(row, row)
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	t := tDist.Quantile(1 - (1-confidence)/2)

	ci := make([]float64, p)
	for i := 0; i < p; i++ {
		variance := mInv.At(i, i) * ssr / float64(dof-1)
		if variance < 0 || math.IsNaN(variance) {
			return nil, errs.Fatalf("negative variance proxy for parameter %d", i).AtStage(errs.StageStats)
		}
		sigma := math.Sqrt(variance)
		ci[i] = math.Abs(t * sigma / in.Params[i] * 100)
	}
	return ci, nil
}

func flatten(data [][]float64) []float64 {
	n := 0
	for _, row := range data {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range data {
		out = append(out, row...)
	}
	return out
}
