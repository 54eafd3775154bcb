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

// Package bindmodel 是平衡濃度模型目錄：給定試驗的結合常數與總濃度序列，
// 解（線性/二次/三次）代數系統，回傳各物種的自由/結合濃度。
//
// 每個模型回傳兩種形式：
//   - fit：供內層線性回歸使用的濃度列（NMR 為 molefraction、UV 為絕對濃度）
//   - display：展示用 molefraction 列
//
// 兩者皆為 rows × observations，與 numutil 的約定一致。
package bindmodel

// Flavour 是模型風味：決定次級平衡常數的來源、以及物種在回歸前的合併方式。
type Flavour string

const (
	// FlavourNone 兩個常數皆獨立擬合。
	FlavourNone Flavour = "none"
	// FlavourAdd 把雙取代複合物濃度以 2 倍權重折進單取代列（回歸係數少一個）。
	FlavourAdd Flavour = "add"
	// FlavourNonCoop 統計因子假設：k12 = k11/4，不獨立擬合。
	FlavourNonCoop Flavour = "noncoop"
	// FlavourStat 同時做 noncoop 的常數推導與 add 的物種折併。
	FlavourStat Flavour = "stat"
)

// derivesSecondary 回報此風味是否把次級常數鎖成 k11/4。
func (f Flavour) derivesSecondary() bool {
	return f == FlavourNonCoop || f == FlavourStat
}

// foldsSpecies 回報此風味是否在回歸前折併雙取代物種列。
func (f Flavour) foldsSpecies() bool {
	return f == FlavourAdd || f == FlavourStat
}

// DerivesSecondary 對外暴露常數推導規則（catalog 依此決定模型參數數量）。
func (f Flavour) DerivesSecondary() bool { return f.derivesSecondary() }

// FoldsSpecies 對外暴露物種折併規則（fitfn 依此展開回歸係數）。
func (f Flavour) FoldsSpecies() bool { return f.foldsSpecies() }

// Model 是目錄中單一平衡計算：
// params 依參數名的字典序排列（fitter 的 schema 保證），xdata rows × observations。
type Model func(params []float64, xdata [][]float64, flavour Flavour) (fit, display [][]float64)

// 次級常數解析：noncoop/stat 風味鎖定 k12 = k11/4，否則取第二個擬合參數。
// 未知風味值落回預設（獨立擬合）行為。
func resolveStepwise(params []float64, flavour Flavour) (k11, k12 float64) {
	k11 = params[0]
	if flavour.derivesSecondary() {
		return k11, k11 / 4
	}
	return k11, params[1]
}
