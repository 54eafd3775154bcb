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

// InhibitorResponse 是 log(inhibitor) 對 normalised response 的劑量反應曲線。
// 不走內層回歸：模型直接輸出預測訊號。
// params 依字典序：hillslope, logIC50；xdata[1] 為 log 濃度（xdata[0] 為占位列）。
func InhibitorResponse(params []float64, xdata [][]float64, _ Flavour) (fit, display [][]float64) {
	hillslope := params[0]
	logIC50 := params[1]
	inhibitor := xdata[1]

	resp := make([]float64, len(inhibitor))
	for i, x := range inhibitor {
		resp[i] = 100 / (1 + math.Pow(10, (logIC50-x)*hillslope))
	}
	fit = [][]float64{resp}
	return fit, Cloned(fit)
}
