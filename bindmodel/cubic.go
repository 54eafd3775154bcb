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

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CubicRoots 回傳 a·x³ + b·x² + c·x + d 的全部複數根。
//
// 解法與 LAPACK 路線一致：把多項式化為 monic，取 companion matrix 的特徵值。
// 實多項式的實根會以虛部精確為 0 的特徵值出現（複根成共軛對），
// 所以下游的 imag == 0 篩選是安全的。
// 首項係數退化時自動降為二次/一次。
func CubicRoots(a, b, c, d float64) []complex128 {
	if a == 0 {
		return quadRoots(b, c, d)
	}
	cm := mat.NewDense(3, 3, []float64{
		-b / a, -c / a, -d / a,
		1, 0, 0,
		0, 1, 0,
	})
	var eig mat.Eigen
	if ok := eig.Factorize(cm, mat.EigenNone); !ok {
		// 特徵值分解失敗視同無解；root 選擇策略會落到退化預設值
		return nil
	}
	return eig.Values(nil)
}

func quadRoots(a, b, c float64) []complex128 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []complex128{complex(-c/b, 0)}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		re := -b / (2 * a)
		im := math.Sqrt(-disc) / (2 * a)
		return []complex128{complex(re, im), complex(re, -im)}
	}
	sq := math.Sqrt(disc)
	return []complex128{complex((-b+sq)/(2*a), 0), complex((-b-sq)/(2*a), 0)}
}

// IsPhysicalRoot 是 root 選擇策略的述語：實根（虛部恰為 0）且非負。
func IsPhysicalRoot(r complex128) bool {
	return imag(r) == 0 && real(r) >= 0
}

// PhysicalRoot 依固定策略從候選根中挑出物理上的自由物種濃度：
// 在所有實且非負的根中取最小者；若一個都沒有，回傳 0。
//
// 「無正實根 → 0」是沿用自原模型的化學假設，不是數值極限；
// 單一觀測點的退化在此就地處理，不會中斷整個擬合。
func PhysicalRoot(roots []complex128) float64 {
	best := math.Inf(1)
	found := false
	for _, r := range roots {
		if !IsPhysicalRoot(r) {
			continue
		}
		if v := real(r); v < best {
			best = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return best
}

// SolveFreeConc 對單一觀測點解三次式並套用 root 選擇策略。
// 每個觀測點只依賴自己的係數，跨觀測點彼此獨立。
func SolveFreeConc(a, b, c, d float64) float64 {
	return PhysicalRoot(CubicRoots(a, b, c, d))
}
