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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Stage 標記錯誤發生在擬合管線的哪一個階段。
// 呼叫端靠它區分「設定錯（還沒開跑）」「模型/回歸錯（單點失敗）」
// 「優化錯」與「統計錯（fit 成功但誤差棒不可用）」。
type Stage uint8

const (
	StageNone Stage = iota
	StageConfig
	StageModel
	StageRegression
	StageOptimize
	StageStats
)

var stageMap = map[Stage]string{
	StageNone:       "",
	StageConfig:     "config",
	StageModel:      "model",
	StageRegression: "regression",
	StageOptimize:   "optimize",
	StageStats:      "stats",
}

func StageName(s Stage) string {
	if str, ok := stageMap[s]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；Stage 標記產生錯誤的擬合階段。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Stage   Stage
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Stage != StageNone {
		base += " stage=" + StageName(e.Stage)
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤分級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// AtStage 為錯誤附上階段標記（鏈式使用）：
//
//	errs.NewWarn("singular sensitivity matrix").AtStage(errs.StageStats)
func (e *E) AtStage(s Stage) *E {
	e.Stage = s
	return e
}

// StageOf 取出錯誤鏈上最靠近呼叫端的階段標記。
// 非 *E 錯誤（標準庫或三方依賴）回傳 StageNone。
func StageOf(err error) Stage {
	var e *E
	if errors.As(err, &e) {
		return e.Stage
	}
	return StageNone
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Stage（保持原本嚴重度與階段）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	stage := StageNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		stage = e.Stage
	}
	r := New(errLv, msg)
	r.Cause = cause
	r.Stage = stage
	return r
}

// WrapWithExtra 使用給定的訊息與上下文包裝底層錯誤，建立一個 *E。
// 沿用規則同 Wrap。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
