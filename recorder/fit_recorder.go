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

package recorder

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/stats"
)

// 存檔格式版本，讀入時檢查
const archiveVersion = 1

// FitRecord 一次擬合的存檔紀錄：設定摘要 + 結果摘要。
// 曲線層資料不進紀錄，報告檔另存。
type FitRecord struct {
	Name      string                 `json:"name"`
	Model     string                 `json:"model"`
	Flavour   string                 `json:"flavour,omitzero"`
	Normalise bool                   `json:"normalise"`
	Params    map[string]stats.Param `json:"params"`
	Converged bool                   `json:"converged"`
	SSR       float64                `json:"ssr"`
	RMSTotal  float64                `json:"rms_total"`
	Time      time.Duration          `json:"time"`
	When      time.Time              `json:"when"`
}

// FitRecorder 擬合紀錄員
//
// FitRecorder 負責累積一批擬合結果，並以 zstd 壓縮的 JSON 存檔。
// 批次模式下多個 worker 共用一個實例，Record 可並發呼叫。
type FitRecorder struct {
	mu      sync.Mutex
	records []*FitRecord
}

type archive struct {
	Version int          `json:"version"`
	Records []*FitRecord `json:"records"`
}

func NewFitRecorder() *FitRecorder {
	return &FitRecorder{}
}

// Record 加入一筆紀錄。
func (r *FitRecorder) Record(rec *FitRecord) {
	if rec == nil {
		return
	}
	if rec.When.IsZero() {
		rec.When = time.Now()
	}
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Len 回傳紀錄筆數。
func (r *FitRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records 回傳紀錄的複本切片（元素共享）。
func (r *FitRecorder) Records() []*FitRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*FitRecord(nil), r.records...)
}

// Best 回傳指定模型中 SSR 最低的一筆；沒有符合的回傳 nil。
func (r *FitRecorder) Best(model string) *FitRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *FitRecord
	for _, rec := range r.records {
		if model != "" && rec.Model != model {
			continue
		}
		if best == nil || rec.SSR < best.SSR {
			best = rec
		}
	}
	return best
}

// MergeFitRecorder 併多個紀錄員為一個，按時間排序。
func MergeFitRecorder(rs []*FitRecorder) *FitRecorder {
	out := NewFitRecorder()
	for _, r := range rs {
		if r == nil {
			continue
		}
		out.records = append(out.records, r.Records()...)
	}
	sort.SliceStable(out.records, func(i, j int) bool {
		return out.records[i].When.Before(out.records[j].When)
	})
	return out
}

// Save 把全部紀錄以 zstd 壓縮的 JSON 寫出。
func (r *FitRecorder) Save(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errs.Wrap(err, "zstd writer init failed")
	}
	a := &archive{Version: archiveVersion, Records: r.Records()}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return errs.Wrap(err, "record archive encode failed")
	}
	return zw.Close()
}

// Load 讀回 Save 寫出的存檔。
func Load(rd io.Reader) (*FitRecorder, error) {
	zr, err := zstd.NewReader(rd)
	if err != nil {
		return nil, errs.Wrap(err, "zstd reader init failed")
	}
	defer zr.Close()

	a := &archive{}
	if err := json.NewDecoder(zr).Decode(a); err != nil {
		return nil, errs.Wrap(err, "record archive decode failed")
	}
	if a.Version != archiveVersion {
		return nil, errs.Fatalf("unsupported record archive version %d", a.Version)
	}
	out := NewFitRecorder()
	out.records = a.Records
	return out, nil
}

// SaveFile / LoadFile 檔案便利包裝。

func (r *FitRecorder) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "record archive create failed")
	}
	defer f.Close()
	return r.Save(f)
}

func LoadFile(path string) (*FitRecorder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, "record archive open failed")
	}
	defer f.Close()
	return Load(f)
}
