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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/bindlab/numutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// Param 報告中單一參數的最終值。
type Param struct {
	Value     float64 `json:"Value"`
	StderrPct float64 `json:"StderrPct"` // 95% CI 半寬，佔擬合值百分比
	Init      float64 `json:"Init"`
	Derived   bool    `json:"Derived,omitempty"`
}

// FitReport 一次擬合的完整報告
type FitReport struct {
	Summary *SummaryReport `json:"Summary"`
	Params  *ParamsReport  `json:"Params"`
	Curve   *CurveReport   `json:"Curve,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	ModelKey  string        `json:"ModelKey"`
	Desc      string        `json:"Desc,omitzero"`
	Flavour   string        `json:"Flavour,omitzero"`
	Normalise bool          `json:"Normalise"`
	Converged bool          `json:"Converged"`
	SSR       float64       `json:"SSR"`
	Signals   int           `json:"Signals"`
	Obs       int           `json:"Obs"`
	Time      time.Duration `json:"Time"`
	StatsErr  string        `json:"StatsErr,omitzero"`
	RMS       []float64     `json:"RMS"`    // 逐訊號殘差 RMS
	CovFit    []float64     `json:"CovFit"` // 逐訊號殘差變異 / 資料變異
	RMSTotal  float64       `json:"RMSTotal"`
}

// ParamsReport 參數結果
//
// Names 保存正準順序，map 輸出對人不穩定，表格列序跟 Names 走
type ParamsReport struct {
	Names  []string         `json:"Names"`
	Values map[string]Param `json:"Values"`
}

// CurveReport 曲線層輸出，批次檔案報告用；表格輸出不含它
type CurveReport struct {
	X         []float64   `json:"X"`
	Fit       [][]float64 `json:"Fit"`
	Residuals [][]float64 `json:"Residuals"`
	Molefrac  [][]float64 `json:"Molefrac,omitzero"`
	Coeffs    [][]float64 `json:"Coeffs,omitzero"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 由殘差一次性算出 RMS / CovFit 派生欄位並鎖定。
// ydata 是原始（未平移）觀測值，CovFit 的分母用它。
func (r *FitReport) Done(ydata [][]float64) {
	if r.isDone {
		return
	}
	if r.Curve != nil {
		r.Summary.RMS = numutil.RMS(r.Curve.Residuals)
		r.Summary.RMSTotal = numutil.RMSTotal(r.Curve.Residuals)
		r.Summary.CovFit = numutil.CovOfFit(ydata, r.Curve.Residuals)
	}
	r.isDone = true
}

func (r *FitReport) WriteWith(w io.Writer, rep FitReportRender) error {
	return rep.Write(w, r)
}

// StdOut 印出人讀表格：summary 一張、參數一張。
func (r *FitReport) StdOut() {
	sk, sm := r.fmtSummary()
	fmt.Println(fmtTable(r.Summary.ModelKey, sk, sm))
	pk, pm := r.fmtParams()
	fmt.Println(fmtTable("parameters", pk, pm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *FitReport) fmtSummary() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	flavour := r.Summary.Flavour
	if flavour == "" {
		flavour = "none"
	}
	converged := "no"
	if r.Summary.Converged {
		converged = "yes"
	}
	msg := map[string]string{
		"Model":      r.Summary.ModelKey,
		"Flavour":    flavour,
		"Normalise":  fmt.Sprintf("%t", r.Summary.Normalise),
		"Converged":  converged,
		"Signals":    p.Sprintf("%d", r.Summary.Signals),
		"Obs":        p.Sprintf("%d", r.Summary.Obs),
		"SSR":        p.Sprintf("%.6g", r.Summary.SSR),
		"RMS(total)": p.Sprintf("%.6g", r.Summary.RMSTotal),
		"Time":       r.Summary.Time.Round(time.Millisecond).String(),
	}
	keys := []string{"Model", "Flavour", "Normalise", "Converged", "Signals", "Obs", "SSR", "RMS(total)", "Time"}
	if r.Summary.StatsErr != "" {
		msg["Stats"] = r.Summary.StatsErr
		keys = append(keys, "Stats")
	}
	return keys, msg
}

func (r *FitReport) fmtParams() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(r.Params.Names))
	msg := make(map[string]string, len(r.Params.Names))
	for _, name := range r.Params.Names {
		v := r.Params.Values[name]
		label := name
		if v.Derived {
			label += " (derived)"
		}
		if v.StderrPct > 0 {
			msg[label] = p.Sprintf("%.6g ± %.2f%% (init %.4g)", v.Value, v.StderrPct, v.Init)
		} else {
			msg[label] = p.Sprintf("%.6g (init %.4g)", v.Value, v.Init)
		}
		keys = append(keys, label)
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	if w := runewidth.StringWidth(title); w > maxKeyLen+maxValLen+1 {
		maxValLen = w - maxKeyLen - 1
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
