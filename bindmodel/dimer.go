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

package bindmodel

import "math"

// ============================================================
// ** 自聚集（等價 K / EK model）**
//
// monomer 自由態 [H]、堆疊內 [Hs]、堆疊端 [He] 三個族群。
// 封閉式出自 Thordarson 書章 eq 143/149/150（rho = 1）。
// ============================================================

// dimerAlpha 解自由 monomer 分率 alpha（eq 143）。
func dimerAlpha(ke, h0 float64) float64 {
	return ((2*ke*h0 + 1) - math.Sqrt(4*ke*h0+1)) / (2 * ke * ke * h0 * h0)
}

// NMRDimer 計算自聚集的 [H]、[Hs]、[He] 分率。
// ke == 0 時無聚集可言，直接回傳全零（避免除零）。
func NMRDimer(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	ke := params[0]
	h0 := xdata[0]
	n := len(h0)

	if ke == 0 {
		z := make([][]float64, 3)
		for i := range z {
			z[i] = make([]float64, n)
		}
		return z, Cloned(z)
	}

	h := make([]float64, n)
	hs := make([]float64, n)
	he := make([]float64, n)
	for i := 0; i < n; i++ {
		a := dimerAlpha(ke, h0[i])
		x := a * ke * h0[i]
		h[i] = a
		hs[i] = (a * x * x) / ((1 - x) * (1 - x)) // eq 149, rho=1
		he[i] = (2 * a * a * ke * h0[i]) / (1 - x) // eq 150, rho=1
	}
	fit = [][]float64{h, hs, he}
	return fit, Cloned(fit)
}

// UVDimer 與 NMRDimer 同一平衡，fit 用絕對濃度（×h0）、display 用分率。
func UVDimer(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	ke := params[0]
	h0 := xdata[0]
	n := len(h0)

	if ke == 0 {
		z := make([][]float64, 3)
		for i := range z {
			z[i] = make([]float64, n)
		}
		return z, Cloned(z)
	}

	hc := make([]float64, n)
	hs := make([]float64, n)
	he := make([]float64, n)
	hMF := make([]float64, n)
	hsMF := make([]float64, n)
	heMF := make([]float64, n)
	for i := 0; i < n; i++ {
		a := dimerAlpha(ke, h0[i])
		x := a * ke * h0[i]
		hc[i] = h0[i] * a
		hs[i] = (h0[i] * a * x * x) / ((1 - x) * (1 - x))
		he[i] = (h0[i] * 2 * a * a * ke * h0[i]) / (1 - x)
		hMF[i] = hc[i] / h0[i]
		hsMF[i] = hs[i] / h0[i]
		heMF[i] = he[i] / h0[i]
	}
	return [][]float64{hc, hs, he}, [][]float64{hMF, hsMF, heMF}
}

// ============================================================
// ** 自聚集 + 協同性（CoEK model，三次式）**
// ============================================================

// coekAlpha 逐觀測點解自由 monomer 分率的三次式（eq 146）。
func coekAlpha(ke, rho float64, h0 []float64) []float64 {
	alpha := make([]float64, len(h0))
	for i := range h0 {
		kh := ke * h0[i]
		a := kh*kh - rho*kh*kh
		b := 2*rho*kh - 2*kh - kh*kh
		c := 2*kh + 1
		d := -1.0
		alpha[i] = SolveFreeConc(a, b, c, d)
	}
	return alpha
}

// NMRCoEK 計算帶協同性 rho 的自聚集族群分率。
// params 依字典序：ke, rho。
func NMRCoEK(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	ke, rho := params[0], params[1]
	h0 := xdata[0]
	alpha := coekAlpha(ke, rho, h0)

	n := len(h0)
	h := make([]float64, n)
	hs := make([]float64, n)
	he := make([]float64, n)
	for i := 0; i < n; i++ {
		a := alpha[i]
		x := a * ke * h0[i]
		h[i] = a
		hs[i] = (rho * a * x * x) / ((1 - x) * (1 - x))
		he[i] = (2 * rho * a * a * ke * h0[i]) / (1 - x)
	}
	fit = [][]float64{h, hs, he}
	return fit, Cloned(fit)
}

// UVCoEK 與 NMRCoEK 同一平衡，fit 用絕對濃度。
func UVCoEK(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	ke, rho := params[0], params[1]
	h0 := xdata[0]
	alpha := coekAlpha(ke, rho, h0)

	n := len(h0)
	hc := make([]float64, n)
	hs := make([]float64, n)
	he := make([]float64, n)
	hMF := make([]float64, n)
	hsMF := make([]float64, n)
	heMF := make([]float64, n)
	for i := 0; i < n; i++ {
		a := alpha[i]
		x := a * ke * h0[i]
		hc[i] = h0[i] * a
		hs[i] = (h0[i] * rho * a * x * x) / ((1 - x) * (1 - x))
		he[i] = (h0[i] * 2 * rho * a * a * ke * h0[i]) / (1 - x)
		hMF[i] = hc[i] / h0[i]
		hsMF[i] = hs[i] / h0[i]
		heMF[i] = he[i] / h0[i]
	}
	return [][]float64{hc, hs, he}, [][]float64{hMF, hsMF, heMF}
}

// Cloned deep-copies a rows × observations matrix.
// fit 與 display 同值時也各自持有記憶體，避免下游互相污染。
func Cloned(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
