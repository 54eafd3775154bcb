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

package fitter

import (
	"github.com/zintix-labs/bindlab/stats"
)

// statistics 把最優點的狀態餵給統計引擎，取回每參數的 95% CI%。
//
// 擾動評估沿用最優點的內層係數（CoeffsRaw 鎖定傳入），
// 並與 Run 走同一套 postprocess，敏感度才是對最終報告曲線的敏感度。
func (f *Fitter) statistics() ([]float64, error) {
	x := f.xdata
	y := f.preprocess(f.ydata)
	ydataInit := initialColumn(f.ydata)
	fixed := f.detailed.CoeffsRaw

	eval := func(p []float64) ([][]float64, error) {
		det, err := f.fn.Eval(p, x, y, ydataInit, fixed)
		if err != nil {
			return nil, err
		}
		return f.postprocess(det.Fit), nil
	}

	return stats.Estimate(stats.EstimateInput{
		Params:    f.paramsRaw,
		Eval:      eval,
		Fit:       f.postprocess(f.detailed.Fit),
		Residuals: f.detailed.Residuals,
		NCoeffs:   f.detailed.NCoeffs(),
		YSize:     totalSize(f.ydata),
	})
}

// totalSize 是 signals × observations 的觀測值總數。
func totalSize(data [][]float64) int {
	n := 0
	for _, row := range data {
		n += len(row)
	}
	return n
}
