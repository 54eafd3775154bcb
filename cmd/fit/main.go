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

// 批次擬合工具：讀一批 YAML 擬合設定檔，逐一擬合並輸出報告。
//
// 用法：
//
//	fit [-worker N] [-format yaml|json] [-out DIR] [-archive FILE] setting1.yaml setting2.yaml ...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/bindlab"
	"github.com/zintix-labs/bindlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	worker  int
	format  string
	outDir  string
	archive string
	quiet   bool
}

func bindVar() []string {
	flag.IntVar(&cfg.worker, "worker", 1, "number of concurrent fits")
	flag.StringVar(&cfg.format, "format", "yaml", "report format: yaml|json")
	flag.StringVar(&cfg.outDir, "out", "", "write per-setting report files to this directory")
	flag.StringVar(&cfg.archive, "archive", "", "write zstd-compressed record archive to this file")
	flag.BoolVar(&cfg.quiet, "q", false, "suppress report tables")

	flag.Parse()

	if cfg.worker < 1 {
		log.Fatal("value err : worker must > 0")
	}
	if cfg.format != "yaml" && cfg.format != "json" {
		log.Fatal("value err : format must be yaml or json")
	}
	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("no fit setting files given")
	}
	return files
}

type outcome struct {
	path string
	rep  *stats.FitReport
	err  error
}

func main() {
	files := bindVar()

	lab := bindlab.New()
	p := message.NewPrinter(language.English)

	green := "\033[1;32m"
	reset := "\033[0m"
	p.Printf("%s[FITS:%d] [WORKER:%d]%s\n", green, len(files), cfg.worker, reset)

	bar := pb.StartNew(len(files))
	jobs := make(chan string)
	results := make([]outcome, 0, len(files))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < cfg.worker; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				out := outcome{path: path}
				raw, err := os.ReadFile(path)
				if err != nil {
					out.err = err
				} else {
					_, out.rep, out.err = lab.RunByYAML(raw)
				}
				mu.Lock()
				results = append(results, out)
				mu.Unlock()
				bar.Increment()
			}
		}()
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
	bar.Finish()

	failed := 0
	for _, out := range results {
		if out.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", out.path, out.err)
			continue
		}
		if !cfg.quiet {
			out.rep.StdOut()
		}
		if cfg.outDir != "" {
			if err := writeReport(out.path, out.rep); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", out.path, err)
			}
		}
	}

	if cfg.archive != "" {
		if err := lab.Recorder().SaveFile(cfg.archive); err != nil {
			fmt.Fprintf(os.Stderr, "archive: %v\n", err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func writeReport(settingPath string, rep *stats.FitReport) error {
	base := strings.TrimSuffix(filepath.Base(settingPath), filepath.Ext(settingPath))
	outPath := filepath.Join(cfg.outDir, base+".report."+cfg.format)
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	var render stats.FitReportRender
	if cfg.format == "json" {
		render = &stats.JsonFitReportRender{}
	} else {
		render = &stats.YAMLFitReportRender{}
	}
	return rep.WriteWith(f, render)
}
