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

package recorder_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/zintix-labs/bindlab/recorder"
	"github.com/zintix-labs/bindlab/stats"
)

func record(name, model string, ssr float64, when time.Time) *recorder.FitRecord {
	return &recorder.FitRecord{
		Name:      name,
		Model:     model,
		Normalise: true,
		Params:    map[string]stats.Param{"k": {Value: 1000, StderrPct: 2}},
		Converged: true,
		SSR:       ssr,
		When:      when,
	}
}

func TestRecorderSaveLoadRoundTrip(t *testing.T) {
	r := recorder.NewFitRecorder()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Record(record("a", "nmr1to1", 1e-6, base))
	r.Record(record("b", "nmr1to2", 3e-7, base.Add(time.Minute)))

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := recorder.Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("loaded %d records, want 2", back.Len())
	}
	got := back.Records()[0]
	if got.Name != "a" || got.Model != "nmr1to1" || got.SSR != 1e-6 {
		t.Fatalf("record mismatch: %+v", got)
	}
	if got.Params["k"].Value != 1000 {
		t.Fatalf("params lost in round trip: %+v", got.Params)
	}
}

func TestRecorderBestPicksLowestSSR(t *testing.T) {
	r := recorder.NewFitRecorder()
	now := time.Now()
	r.Record(record("a", "nmr1to1", 1e-3, now))
	r.Record(record("b", "nmr1to1", 1e-6, now))
	r.Record(record("c", "uv1to1", 1e-9, now))

	best := r.Best("nmr1to1")
	if best == nil || best.Name != "b" {
		t.Fatalf("best = %+v, want record b", best)
	}
	if any := r.Best(""); any == nil || any.Name != "c" {
		t.Fatalf("unfiltered best = %+v, want record c", any)
	}
	if r.Best("nmrdimer") != nil {
		t.Fatalf("best for absent model must be nil")
	}
}

func TestMergeFitRecorderSortsByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r1 := recorder.NewFitRecorder()
	r1.Record(record("late", "nmr1to1", 1, base.Add(time.Hour)))
	r2 := recorder.NewFitRecorder()
	r2.Record(record("early", "nmr1to1", 1, base))

	m := recorder.MergeFitRecorder([]*recorder.FitRecorder{r1, nil, r2})
	recs := m.Records()
	if len(recs) != 2 {
		t.Fatalf("merged %d records, want 2", len(recs))
	}
	if recs[0].Name != "early" || recs[1].Name != "late" {
		t.Fatalf("merge order = [%s %s], want [early late]", recs[0].Name, recs[1].Name)
	}
}

func TestRecorderConcurrentRecord(t *testing.T) {
	r := recorder.NewFitRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record(record("x", "nmr1to1", 1, time.Now()))
			}
		}()
	}
	wg.Wait()
	if r.Len() != 400 {
		t.Fatalf("recorded %d, want 400", r.Len())
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := recorder.Load(bytes.NewReader([]byte("not a zstd stream"))); err == nil {
		t.Fatalf("garbage input not rejected")
	}
}
