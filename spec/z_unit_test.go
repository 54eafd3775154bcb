package spec_test

import (
	"strings"
	"testing"

	"github.com/zintix-labs/bindlab/bindmodel"
	"github.com/zintix-labs/bindlab/spec"
)

const goodYAML = `
name: titration-42
model: nmr1to2
flavour: noncoop
params_init:
  k11: 1000
xdata:
  - [0.001, 0.001, 0.001, 0.001]
  - [0.0, 0.001, 0.002, 0.004]
ydata:
  - [7.80, 7.92, 8.01, 8.12]
`

func TestGetFitSettingByYAML(t *testing.T) {
	fs, err := spec.GetFitSettingByYAML([]byte(goodYAML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fs.Model != "nmr1to2" {
		t.Fatalf("model = %q", fs.Model)
	}
	if fs.FlavourOf() != bindmodel.FlavourNonCoop {
		t.Fatalf("flavour = %q", fs.FlavourOf())
	}
	if !fs.Normalised() {
		t.Fatalf("normalise must default to true")
	}
	if fs.ParamsInit["k11"] != 1000 {
		t.Fatalf("params_init = %v", fs.ParamsInit)
	}
}

func TestGetFitSettingByJSON(t *testing.T) {
	data := `{
		"name": "uv-run",
		"model": "uv1to1",
		"normalise": false,
		"params_init": {"k": 500},
		"xdata": [[0.001, 0.001], [0.0, 0.002]],
		"ydata": [[0.42, 0.61]]
	}`
	fs, err := spec.GetFitSettingByJSON([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fs.Normalised() {
		t.Fatalf("explicit normalise: false ignored")
	}
}

func TestFitSettingRejectsUnknownModel(t *testing.T) {
	bad := strings.Replace(goodYAML, "nmr1to2", "nmr9to9", 1)
	if _, err := spec.GetFitSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("unknown model key not rejected")
	}
}

func TestFitSettingRejectsParamMismatch(t *testing.T) {
	// noncoop 只收 k11，多給 k12 要擋
	bad := strings.Replace(goodYAML, "  k11: 1000", "  k11: 1000\n  k12: 100", 1)
	if _, err := spec.GetFitSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("excess parameter not rejected under noncoop flavour")
	}
}

func TestFitSettingRejectsRaggedData(t *testing.T) {
	bad := strings.Replace(goodYAML, "[7.80, 7.92, 8.01, 8.12]", "[7.80, 7.92, 8.01]", 1)
	if _, err := spec.GetFitSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("observation count mismatch not rejected")
	}
}

func TestFitSettingRejectsAggXShape(t *testing.T) {
	data := `
name: dimer
model: nmrdimer
params_init:
  ke: 100
xdata:
  - [0.001, 0.002, 0.004]
  - [0.0, 0.0, 0.0]
ydata:
  - [7.80, 7.92, 8.01]
`
	if _, err := spec.GetFitSettingByYAML([]byte(data)); err == nil {
		t.Fatalf("aggregation model with two xdata rows not rejected")
	}
}

func TestFitSettingRejectsDiluteOnAgg(t *testing.T) {
	data := `
name: dimer
model: nmrdimer
dilute: true
params_init:
  ke: 100
xdata:
  - [0.001, 0.002, 0.004]
ydata:
  - [7.80, 7.92, 8.01]
`
	if _, err := spec.GetFitSettingByYAML([]byte(data)); err == nil {
		t.Fatalf("dilute on aggregation model not rejected")
	}
}
