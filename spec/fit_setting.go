package spec

import (
	"fmt"

	"github.com/zintix-labs/bindlab/bindmodel"
	"github.com/zintix-labs/bindlab/catalog"
	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/fitfn"
	"github.com/zintix-labs/bindlab/numutil"
)

// FitSetting 包含跑一次擬合所需的所有設定與資料。
type FitSetting struct {
	Name       string             `yaml:"name"        json:"name"`
	Model      string             `yaml:"model"       json:"model"`
	Flavour    string             `yaml:"flavour"     json:"flavour"`
	Normalise  *bool              `yaml:"normalise"   json:"normalise"` // 省略視為 true
	Dilute     bool               `yaml:"dilute"      json:"dilute"`
	ParamsInit map[string]float64 `yaml:"params_init" json:"params_init"`
	XData      [][]float64        `yaml:"xdata"       json:"xdata"`
	YData      [][]float64        `yaml:"ydata"       json:"ydata"`
}

// Normalised 回傳平移旗標，未指定時預設開啟。
func (fs *FitSetting) Normalised() bool {
	if fs.Normalise == nil {
		return true
	}
	return *fs.Normalise
}

// FlavourOf 回傳風味（空字串視為 none）。
func (fs *FitSetting) FlavourOf() bindmodel.Flavour {
	if fs.Flavour == "" {
		return bindmodel.FlavourNone
	}
	return bindmodel.Flavour(fs.Flavour)
}

// init
func (fs *FitSetting) init() error {
	return fs.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (fs *FitSetting) valid() error {

	entry, ok := catalog.Lookup(fs.Model)
	if !ok {
		return errs.Fatalf("name: %s err:unknown model %q", fs.Name, fs.Model).AtStage(errs.StageConfig)
	}

	// 風味合法性交給 catalog（封閉表）
	if _, err := catalog.Construct(fs.Model, fs.Normalised(), fs.FlavourOf()); err != nil {
		return err
	}

	// 初始參數的鍵集合要與模型在該風味下的參數名完全一致
	names := entry.ParamNames(fs.FlavourOf())
	if len(fs.ParamsInit) != len(names) {
		return errs.Fatalf("name: %s err:model %s expects params %v, got %d entries", fs.Name, fs.Model, names, len(fs.ParamsInit)).AtStage(errs.StageConfig)
	}
	for _, n := range names {
		if _, ok := fs.ParamsInit[n]; !ok {
			return errs.Fatalf("name: %s err:missing initial guess for %q", fs.Name, n).AtStage(errs.StageConfig)
		}
	}

	// 資料形狀
	xObs, ok := numutil.Rectangular(fs.XData)
	if !ok || xObs == 0 {
		return errs.NewFatal(fmt.Sprintf("name: %s err:xdata must be a non-empty rectangular array", fs.Name)).AtStage(errs.StageConfig)
	}
	yObs, ok := numutil.Rectangular(fs.YData)
	if !ok || yObs == 0 {
		return errs.NewFatal(fmt.Sprintf("name: %s err:ydata must be a non-empty rectangular array", fs.Name)).AtStage(errs.StageConfig)
	}
	if xObs != yObs {
		return errs.Fatalf("name: %s err:xdata has %d observations, ydata has %d", fs.Name, xObs, yObs).AtStage(errs.StageConfig)
	}

	// x 變數列數依模型種類
	want := 2
	if entry.Kind == fitfn.KindAgg {
		want = 1
	}
	if len(fs.XData) != want {
		return errs.Fatalf("name: %s err:model %s expects %d xdata rows, got %d", fs.Name, fs.Model, want, len(fs.XData)).AtStage(errs.StageConfig)
	}

	// dilute 只對聚集以外的滴定有意義（以 h0 濃度比例縮放訊號）
	if fs.Dilute && entry.Kind == fitfn.KindAgg {
		return errs.Fatalf("name: %s err:dilution correction does not apply to aggregation models", fs.Name).AtStage(errs.StageConfig)
	}

	return nil
}
