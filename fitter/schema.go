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

import "sort"

// ParamSchema 固定參數名與向量位置的對應。
//
// 優化器、擾動邏輯與結果格式化全部操作位置向量；
// schema 建立一次（字典序）後貫穿整條管線，杜絕無聲的順序錯位。
type ParamSchema struct {
	names []string
	index map[string]int
}

// NewParamSchema 依字典序建立 schema。
func NewParamSchema(names []string) *ParamSchema {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	idx := make(map[string]int, len(sorted))
	for i, n := range sorted {
		idx[n] = i
	}
	return &ParamSchema{names: sorted, index: idx}
}

// Names 回傳正準順序的參數名。
func (s *ParamSchema) Names() []string {
	return append([]string(nil), s.names...)
}

// Len 回傳參數個數。
func (s *ParamSchema) Len() int { return len(s.names) }

// Index 回傳參數名的向量位置。
func (s *ParamSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Vector 把 name → value 映射展開成正準順序向量。
func (s *ParamSchema) Vector(params map[string]float64) []float64 {
	out := make([]float64, len(s.names))
	for i, n := range s.names {
		out[i] = params[n]
	}
	return out
}

// Map 把正準順序向量還原成 name → value 映射。
func (s *ParamSchema) Map(vec []float64) map[string]float64 {
	out := make(map[string]float64, len(s.names))
	for i, n := range s.names {
		out[n] = vec[i]
	}
	return out
}

// Matches 檢查映射的鍵集合與 schema 完全一致。
func (s *ParamSchema) Matches(params map[string]float64) bool {
	if len(params) != len(s.names) {
		return false
	}
	for _, n := range s.names {
		if _, ok := params[n]; !ok {
			return false
		}
	}
	return true
}
