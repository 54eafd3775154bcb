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

package main

import (
	"flag"
	"fmt"

	"github.com/zintix-labs/bindlab"
	"github.com/zintix-labs/bindlab/server"
	"github.com/zintix-labs/bindlab/server/logger"
	"github.com/zintix-labs/bindlab/server/svrcfg"
)

// Lab server entrypoint: exposes POST /v1/fit and GET /v1/models.
// For production deployments, run ModeProd behind a reverse proxy.
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Println(err)
		return
	}
	server.Run(cfg)
}

type config struct {
	LogMode      string
	MaxBodyBytes int64
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "ModeDev", "log mode: ModeDev|ModeProd|ModeSilence")
	flag.Int64Var(&cfg.MaxBodyBytes, "max-body", 5<<20, "max fit request body size in bytes")

	flag.Parse()

	log, _ := logger.NewAsync(4096, cfg.norm())

	sCfg := &svrcfg.SvrCfg{
		Log:          log,
		Lab:          bindlab.New(),
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	return sCfg, nil
}

func (cfg *config) norm() logger.LogMode {
	switch cfg.LogMode {
	case "ModeDev":
		return logger.ModeDev
	case "ModeProd":
		return logger.ModeProd
	case "ModeSilence":
		return logger.ModeSilence
	default:
		return logger.ModeDev
	}
}
