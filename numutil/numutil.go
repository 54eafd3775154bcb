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

// Package numutil 提供滴定資料的純數值轉換。
//
// 資料約定：2D 序列一律是 rows × observations（列 = 訊號/變數，行 = 觀測點），
// 與 fitter / fitfn / bindmodel 共用同一約定。
package numutil

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Clone deep-copies a rows × observations series.
func Clone(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// SameShape 檢查兩個 2D 序列的列數與觀測數是否一致。
func SameShape(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}

// Rectangular 檢查序列是否為矩形且至少含一個觀測點，回傳觀測數。
func Rectangular(data [][]float64) (int, bool) {
	if len(data) == 0 || len(data[0]) == 0 {
		return 0, false
	}
	obs := len(data[0])
	for _, row := range data {
		if len(row) != obs {
			return 0, false
		}
	}
	return obs, true
}

// Flatten 以列優先順序攤平成 1D 向量。
func Flatten(data [][]float64) []float64 {
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

// Normalise 以每列第一個觀測值為基準做平移：row - row[0]。
// 回傳新序列，輸入不變。
func Normalise(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		r := append([]float64(nil), row...)
		if len(r) > 0 {
			floats.AddConst(-row[0], r)
		}
		out[i] = r
	}
	return out
}

// Denormalise 把 Normalise 移除的初始值加回去：norm + data[i][0]。
// data 是原始（未平移）序列，norm 是平移後序列；兩者需同形狀。
func Denormalise(data, norm [][]float64) [][]float64 {
	out := make([][]float64, len(norm))
	for i, row := range norm {
		r := append([]float64(nil), row...)
		if i < len(data) && len(data[i]) > 0 {
			floats.AddConst(data[i][0], r)
		}
		out[i] = r
	}
	return out
}

// Dilute 對觀測序列套用稀釋係數 h0/h0[0]。
// h0 為各觀測點的 host 總濃度；每列逐觀測點乘上對應係數。
func Dilute(h0 []float64, ydata [][]float64) [][]float64 {
	out := make([][]float64, len(ydata))
	for i, row := range ydata {
		r := make([]float64, len(row))
		for j := range row {
			r[j] = row[j] * h0[j] / h0[0]
		}
		out[i] = r
	}
	return out
}

// RMS 計算每列殘差的 root-sum-square。
func RMS(residuals [][]float64) []float64 {
	out := make([]float64, len(residuals))
	for i, row := range residuals {
		out[i] = math.Sqrt(floats.Dot(row, row))
	}
	return out
}

// RMSTotal 回傳 RMS 的列平均。
func RMSTotal(residuals [][]float64) float64 {
	rms := RMS(residuals)
	if len(rms) == 0 {
		return 0
	}
	return floats.Sum(rms) / float64(len(rms))
}

// CovOfFit 回傳每列 var(residual)/var(data)，即擬合未解釋的變異比例。
func CovOfFit(data, residuals [][]float64) []float64 {
	out := make([]float64, len(residuals))
	for i := range residuals {
		vr := stat.Variance(residuals[i], nil)
		vd := stat.Variance(data[i], nil)
		if vd == 0 {
			out[i] = math.Inf(1)
			continue
		}
		out[i] = vr / vd
	}
	return out
}

// SSR 回傳整個殘差陣列的平方和。
func SSR(residuals [][]float64) float64 {
	total := 0.0
	for _, row := range residuals {
		total += floats.Dot(row, row)
	}
	return total
}
