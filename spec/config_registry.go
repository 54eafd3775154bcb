package spec

import (
	"encoding/json"

	"github.com/zintix-labs/bindlab/errs"
	"gopkg.in/yaml.v3"
)

// GetFitSettingByYAML
// 會讀取 YAML 設定、初始化並執行基本檢查後回傳。
func GetFitSettingByYAML(data []byte) (*FitSetting, error) {
	fs := &FitSetting{}
	if err := yaml.Unmarshal(data, fs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml").AtStage(errs.StageConfig)
	}

	// 設定檔初始化
	if err := fs.init(); err != nil {
		return nil, errs.Wrap(err, "fit setting initialized err")
	}

	return fs, nil
}

// GetFitSettingByJSON
// 會讀取 Json 設定、初始化並執行基本檢查後回傳
func GetFitSettingByJSON(data []byte) (*FitSetting, error) {
	fs := &FitSetting{}
	if err := json.Unmarshal(data, fs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte").AtStage(errs.StageConfig)
	}

	// 設定檔初始化
	if err := fs.init(); err != nil {
		return nil, errs.Wrap(err, "fit setting initialized err")
	}

	return fs, nil
}
