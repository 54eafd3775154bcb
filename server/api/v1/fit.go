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

package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/zintix-labs/bindlab"
	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/server/httperr"
	"github.com/zintix-labs/bindlab/server/svrcfg"
)

// FitHandler 持有 Lab 與請求上限設定。
type FitHandler struct {
	lab      *bindlab.Lab
	maxBytes int64
}

func NewFitHandler(sCfg *svrcfg.SvrCfg) (*FitHandler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &FitHandler{lab: sCfg.Lab, maxBytes: sCfg.MaxBodyBytes}, nil
}

// Fit 接收 JSON 格式的擬合設定（含資料），回傳完整擬合報告。
//
// 擬合失敗（設定錯誤、回歸奇異、優化器掛掉）以 httperr 映射狀態碼；
// 統計階段失敗不是錯誤，報告內 StatsErr 會說明原因。
func (fh *FitHandler) Fit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, fh.maxBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "read request body failed").AtStage(errs.StageConfig))
		return
	}

	_, rep, err := fh.lab.RunByJSON(raw)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode report failed"))
		return
	}
}

// ModelInfo 是 /v1/models 的單筆輸出。
type ModelInfo struct {
	Key    string   `json:"key"`
	Params []string `json:"params"`
	Desc   string   `json:"desc"`
}

// Models 列出目錄內全部可用模型與其參數名。
func (fh *FitHandler) Models(w http.ResponseWriter, r *http.Request) {
	entries := fh.lab.Models()
	out := make([]ModelInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, ModelInfo{
			Key:    e.Key,
			Params: append([]string(nil), e.Params...),
			Desc:   e.Desc,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode model list failed"))
		return
	}
}
