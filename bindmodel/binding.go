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
// ** 1:1 host–guest **
// ============================================================

// hg11 解 1:1 結合得到 [HG]：封閉式二次解。
// 判別式為負（主根為複數）時以幾何平均 sqrt(h0·g0) 代替。
func hg11(k, h0, g0 float64) float64 {
	sum := g0 + h0 + 1/k
	disc := sum*sum - 4*g0*h0
	if disc < 0 {
		return math.Sqrt(h0 * g0)
	}
	return 0.5 * (sum - math.Sqrt(disc))
}

// NMR1to1 計算 1:1 結合的 [H]、[HG]。
// NMR 訊號正比於 molefraction，fit 與 display 皆為除以 h0 後的值。
func NMR1to1(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	k := params[0]
	h0, g0 := xdata[0], xdata[1]
	n := len(h0)

	h := make([]float64, n)
	hg := make([]float64, n)
	for i := 0; i < n; i++ {
		c := hg11(k, h0[i], g0[i])
		hg[i] = c / h0[i]
		h[i] = (h0[i] - c) / h0[i]
	}
	fit = [][]float64{h, hg}
	display = [][]float64{append([]float64(nil), h...), append([]float64(nil), hg...)}
	return fit, display
}

// UV1to1 計算 1:1 結合的 [H]、[HG]。
// UV 吸收度正比於絕對濃度：fit 用濃度、display 用 molefraction。
func UV1to1(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	k := params[0]
	h0, g0 := xdata[0], xdata[1]
	n := len(h0)

	h := make([]float64, n)
	hg := make([]float64, n)
	hMF := make([]float64, n)
	hgMF := make([]float64, n)
	for i := 0; i < n; i++ {
		c := hg11(k, h0[i], g0[i])
		hg[i] = c
		h[i] = h0[i] - c
		hgMF[i] = c / h0[i]
		hMF[i] = h[i] / h0[i]
	}
	return [][]float64{h, hg}, [][]float64{hMF, hgMF}
}

// ============================================================
// ** 1:2 host–guest（自由 guest 的三次式）**
// ============================================================

// freeGuest12 逐觀測點解自由 guest 濃度 [G] 的三次式。
func freeGuest12(k11, k12 float64, h0, g0 []float64) []float64 {
	g := make([]float64, len(h0))
	for i := range h0 {
		a := k11 * k12
		b := 2*k11*k12*h0[i] + k11 - g0[i]*k11*k12
		c := 1 + k11*h0[i] - k11*g0[i]
		d := -g0[i]
		g[i] = SolveFreeConc(a, b, c, d)
	}
	return g
}

// NMR1to2 計算 1:2 結合的 [H]、[HG]、[HG2] molefraction。
// add/stat 風味把 HG2 以 2 倍權重折進 HG 列後才交給回歸。
func NMR1to2(params []float64, xdata [][]float64, flavour Flavour) (fit, display [][]float64) {
	k11, k12 := resolveStepwise(params, flavour)
	h0, g0 := xdata[0], xdata[1]
	g := freeGuest12(k11, k12, h0, g0)

	n := len(h0)
	h := make([]float64, n)
	hg := make([]float64, n)
	hg2 := make([]float64, n)
	for i := 0; i < n; i++ {
		den := 1 + g[i]*k11 + g[i]*g[i]*k11*k12
		hg[i] = (g[i] * k11) / den
		hg2[i] = (g[i] * g[i] * k11 * k12) / den
		h[i] = 1 - hg[i] - hg2[i]
	}

	display = [][]float64{h, hg, hg2}
	if flavour.foldsSpecies() {
		hgAdd := make([]float64, n)
		for i := range hgAdd {
			hgAdd[i] = hg[i] + 2*hg2[i]
		}
		fit = [][]float64{append([]float64(nil), h...), hgAdd}
	} else {
		fit = [][]float64{
			append([]float64(nil), h...),
			append([]float64(nil), hg...),
			append([]float64(nil), hg2...),
		}
	}
	return fit, display
}

// UV1to2 與 NMR1to2 同一平衡，但 fit 用絕對濃度（×h0）。
func UV1to2(params []float64, xdata [][]float64, flavour Flavour) (fit, display [][]float64) {
	k11, k12 := resolveStepwise(params, flavour)
	h0, g0 := xdata[0], xdata[1]
	g := freeGuest12(k11, k12, h0, g0)

	n := len(h0)
	h := make([]float64, n)
	hg := make([]float64, n)
	hg2 := make([]float64, n)
	hMF := make([]float64, n)
	hgMF := make([]float64, n)
	hg2MF := make([]float64, n)
	for i := 0; i < n; i++ {
		den := 1 + g[i]*k11 + g[i]*g[i]*k11*k12
		hg[i] = h0[i] * (g[i] * k11) / den
		hg2[i] = h0[i] * (g[i] * g[i] * k11 * k12) / den
		h[i] = h0[i] - hg[i] - hg2[i]
		hMF[i] = h[i] / h0[i]
		hgMF[i] = hg[i] / h0[i]
		hg2MF[i] = hg2[i] / h0[i]
	}

	display = [][]float64{hMF, hgMF, hg2MF}
	if flavour.foldsSpecies() {
		hgAdd := make([]float64, n)
		for i := range hgAdd {
			hgAdd[i] = hg[i] + 2*hg2[i]
		}
		fit = [][]float64{h, hgAdd}
	} else {
		fit = [][]float64{h, hg, hg2}
	}
	return fit, display
}

// ============================================================
// ** 2:1 host–guest（自由 host 的三次式）**
// ============================================================

// freeHost21 逐觀測點解自由 host 濃度 [H] 的三次式。
// 與 1:2 同形，host/guest 角色互換。
func freeHost21(k11, k12 float64, h0, g0 []float64) []float64 {
	h := make([]float64, len(h0))
	for i := range h0 {
		a := k11 * k12
		b := 2*k11*k12*g0[i] + k11 - h0[i]*k11*k12
		c := 1 + k11*g0[i] - k11*h0[i]
		d := -h0[i]
		h[i] = SolveFreeConc(a, b, c, d)
	}
	return h
}

// NMR2to1 計算 2:1 結合的 [H]、[HG]、[H2G] molefraction。
func NMR2to1(params []float64, xdata [][]float64, flavour Flavour) (fit, display [][]float64) {
	k11, k12 := resolveStepwise(params, flavour)
	h0, g0 := xdata[0], xdata[1]
	hf := freeHost21(k11, k12, h0, g0)

	n := len(h0)
	h := make([]float64, n)
	hg := make([]float64, n)
	h2g := make([]float64, n)
	for i := 0; i < n; i++ {
		den := h0[i] * (1 + hf[i]*k11 + hf[i]*hf[i]*k11*k12)
		hg[i] = (g0[i] * hf[i] * k11) / den
		h2g[i] = (2 * g0[i] * hf[i] * hf[i] * k11 * k12) / den
		h[i] = 1 - hg[i] - h2g[i]
	}

	display = [][]float64{h, hg, h2g}
	if flavour.foldsSpecies() {
		hgAdd := make([]float64, n)
		for i := range hgAdd {
			hgAdd[i] = hg[i] + 2*h2g[i]
		}
		fit = [][]float64{append([]float64(nil), h...), hgAdd}
	} else {
		fit = [][]float64{
			append([]float64(nil), h...),
			append([]float64(nil), hg...),
			append([]float64(nil), h2g...),
		}
	}
	return fit, display
}

// UV2to1 與 NMR2to1 同一平衡，fit 用絕對濃度。
func UV2to1(params []float64, xdata [][]float64, flavour Flavour) (fit, display [][]float64) {
	k11, k12 := resolveStepwise(params, flavour)
	h0, g0 := xdata[0], xdata[1]
	hf := freeHost21(k11, k12, h0, g0)

	n := len(h0)
	h := make([]float64, n)
	hg := make([]float64, n)
	h2g := make([]float64, n)
	hMF := make([]float64, n)
	hgMF := make([]float64, n)
	h2gMF := make([]float64, n)
	for i := 0; i < n; i++ {
		den := 1 + hf[i]*k11 + hf[i]*hf[i]*k11*k12
		hg[i] = g0[i] * (hf[i] * k11) / den
		h2g[i] = g0[i] * (2 * hf[i] * hf[i] * k11 * k12) / den
		h[i] = h0[i] - hg[i] - h2g[i]
		hMF[i] = h[i] / h0[i]
		hgMF[i] = hg[i] / h0[i]
		h2gMF[i] = h2g[i] / h0[i]
	}

	display = [][]float64{hMF, hgMF, h2gMF}
	if flavour.foldsSpecies() {
		hgAdd := make([]float64, n)
		for i := range hgAdd {
			hgAdd[i] = hg[i] + 2*h2g[i]
		}
		fit = [][]float64{h, hgAdd}
	} else {
		fit = [][]float64{h, hg, h2g}
	}
	return fit, display
}
