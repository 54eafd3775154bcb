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

// Package bindlab 提供 Bindlab 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Lab 視為一個「可被後端/批次工具使用的 runtime」，它負責把下列地基組裝在一起：
//  1. Catalog：結合模型目錄（Single Source of Truth / SSOT），定義有哪些模型、各自的參數名。
//  2. Fitter：非線性擬合驅動器（Nelder–Mead + 內層線性回歸）。
//  3. Stats：擬合後統計引擎（信賴區間）與報告輸出。
//  4. Recorder：批次擬合的紀錄員（zstd 壓縮存檔）。
//
// 設計重點：
//   - Lab 本身不綁定任何「檔案路徑」概念：設定一律以 []byte（YAML/JSON）或 *spec.FitSetting 注入。
//   - 一次 FitSettingRun 是一個獨立擬合：同輸入必得同輸出，Lab 不在擬合之間共享狀態
//     （recorder 除外，它只累積結果摘要）。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 server 套件持有 Lab，對外提供 /v1/fit。
//   - 批次工具（cmd/fit）：讀一批 YAML 設定檔，逐一 FitSettingRun 並輸出報告。
package bindlab

import (
	"github.com/zintix-labs/bindlab/catalog"
	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/fitter"
	"github.com/zintix-labs/bindlab/numutil"
	"github.com/zintix-labs/bindlab/recorder"
	"github.com/zintix-labs/bindlab/spec"
	"github.com/zintix-labs/bindlab/stats"
)

// Lab 是組裝器：持有模型目錄入口與共用的紀錄員。
type Lab struct {
	rec *recorder.FitRecorder
}

// New 建立一個 Lab instance。
func New() *Lab {
	return &Lab{rec: recorder.NewFitRecorder()}
}

// Recorder 回傳共用紀錄員（批次存檔用）。
func (l *Lab) Recorder() *recorder.FitRecorder { return l.rec }

// Models 回傳目錄內全部可用模型。
func (l *Lab) Models() []catalog.Entry { return catalog.All() }

// FitSettingRun 跑一次完整擬合：
// 目錄建構 → 稀釋校正（選配）→ 擬合 → 報告組裝 → 紀錄。
//
// 回傳的 Result 是擬合層輸出，FitReport 是已補完派生統計的報告層輸出。
func (l *Lab) FitSettingRun(fs *spec.FitSetting) (*fitter.Result, *stats.FitReport, error) {
	if fs == nil {
		return nil, nil, errs.NewFatal("fit setting required").AtStage(errs.StageConfig)
	}

	fn, err := catalog.Construct(fs.Model, fs.Normalised(), fs.FlavourOf())
	if err != nil {
		return nil, nil, err
	}

	ydata := fs.YData
	if fs.Dilute {
		// 滴定過程 host 被稀釋，依 h0/h0[0] 比例把訊號縮回同一濃度基準
		ydata = numutil.Dilute(fs.XData[0], ydata)
	}

	f, err := fitter.New(fs.XData, ydata, fn, fs.Normalised())
	if err != nil {
		return nil, nil, err
	}
	res, err := f.Run(fs.ParamsInit)
	if err != nil {
		return nil, nil, err
	}

	rep := l.buildReport(fs, f, res, ydata)
	l.record(fs, rep)
	return res, rep, nil
}

// RunByYAML 解 YAML 設定後跑 FitSettingRun。
func (l *Lab) RunByYAML(raw []byte) (*fitter.Result, *stats.FitReport, error) {
	fs, err := spec.GetFitSettingByYAML(raw)
	if err != nil {
		return nil, nil, err
	}
	return l.FitSettingRun(fs)
}

// RunByJSON 解 JSON 設定後跑 FitSettingRun。
func (l *Lab) RunByJSON(raw []byte) (*fitter.Result, *stats.FitReport, error) {
	fs, err := spec.GetFitSettingByJSON(raw)
	if err != nil {
		return nil, nil, err
	}
	return l.FitSettingRun(fs)
}

// buildReport 把擬合層輸出攤成報告層結構並補完派生統計。
func (l *Lab) buildReport(fs *spec.FitSetting, f *fitter.Fitter, res *fitter.Result, ydata [][]float64) *stats.FitReport {
	entry, _ := catalog.Lookup(fs.Model)

	names := make([]string, 0, len(res.Params))
	values := make(map[string]stats.Param, len(res.Params))
	for _, n := range f.Schema().Names() {
		names = append(names, n)
	}
	// 推導參數（例如二聚化的 kd）排在獨立參數之後
	for n, p := range res.Params {
		values[n] = stats.Param{
			Value:     p.Value,
			StderrPct: p.Stderr,
			Init:      p.Init,
			Derived:   p.Derived,
		}
		if p.Derived {
			names = append(names, n)
		}
	}

	obs := 0
	if len(ydata) > 0 {
		obs = len(ydata[0])
	}
	rep := &stats.FitReport{
		Summary: &stats.SummaryReport{
			ModelKey:  fs.Model,
			Desc:      entry.Desc,
			Flavour:   string(fs.FlavourOf()),
			Normalise: fs.Normalised(),
			Converged: res.Converged,
			SSR:       res.SSR,
			Signals:   len(ydata),
			Obs:       obs,
			Time:      res.Time,
			StatsErr:  res.StatsErr,
		},
		Params: &stats.ParamsReport{Names: names, Values: values},
		Curve: &stats.CurveReport{
			X:         f.Func().FormatX(fs.XData),
			Fit:       res.Fit,
			Residuals: res.Residuals,
			Molefrac:  res.Molefrac,
			Coeffs:    res.Coeffs,
		},
	}
	rep.Done(ydata)
	return rep
}

// record 把報告摘要放進共用紀錄員。
func (l *Lab) record(fs *spec.FitSetting, rep *stats.FitReport) {
	l.rec.Record(&recorder.FitRecord{
		Name:      fs.Name,
		Model:     fs.Model,
		Flavour:   string(fs.FlavourOf()),
		Normalise: fs.Normalised(),
		Params:    rep.Params.Values,
		Converged: rep.Summary.Converged,
		SSR:       rep.Summary.SSR,
		RMSTotal:  rep.Summary.RMSTotal,
		Time:      rep.Summary.Time,
	})
}
