package catalog

import (
	"sort"

	"github.com/zintix-labs/bindlab/bindmodel"
	"github.com/zintix-labs/bindlab/errs"
	"github.com/zintix-labs/bindlab/fitfn"
)

// Entry 描述目錄中一個可建構的擬合模型。
// 目錄是封閉表：新增模型 = 新增一筆 entry，不做 runtime 名稱反射。
type Entry struct {
	Key    string
	Kind   fitfn.Kind
	Model  bindmodel.Model
	Params []string // 擬合參數名（字典序），風味推導的次級常數不在內
	Desc   string
}

// Arity 回傳此 entry 在給定風味下的擬合參數個數。
// noncoop/stat 鎖定次級常數，參數少一個。
func (e Entry) Arity(flavour bindmodel.Flavour) int {
	n := len(e.Params)
	if n > 1 && flavour.DerivesSecondary() && e.Kind == fitfn.KindBinding {
		return n - 1
	}
	return n
}

// ParamNames 回傳給定風味下實際擬合的參數名（字典序）。
func (e Entry) ParamNames(flavour bindmodel.Flavour) []string {
	names := append([]string(nil), e.Params...)
	if n := e.Arity(flavour); n < len(names) {
		names = names[:n]
	}
	return names
}

var entries = map[string]Entry{
	"nmr1to1":   {Key: "nmr1to1", Kind: fitfn.KindBinding, Model: bindmodel.NMR1to1, Params: []string{"k"}, Desc: "NMR 1:1 host-guest binding"},
	"uv1to1":    {Key: "uv1to1", Kind: fitfn.KindBinding, Model: bindmodel.UV1to1, Params: []string{"k"}, Desc: "UV 1:1 host-guest binding"},
	"nmr1to2":   {Key: "nmr1to2", Kind: fitfn.KindBinding, Model: bindmodel.NMR1to2, Params: []string{"k11", "k12"}, Desc: "NMR 1:2 host-guest binding"},
	"uv1to2":    {Key: "uv1to2", Kind: fitfn.KindBinding, Model: bindmodel.UV1to2, Params: []string{"k11", "k12"}, Desc: "UV 1:2 host-guest binding"},
	"nmr2to1":   {Key: "nmr2to1", Kind: fitfn.KindBinding, Model: bindmodel.NMR2to1, Params: []string{"k11", "k12"}, Desc: "NMR 2:1 host-guest binding"},
	"uv2to1":    {Key: "uv2to1", Kind: fitfn.KindBinding, Model: bindmodel.UV2to1, Params: []string{"k11", "k12"}, Desc: "UV 2:1 host-guest binding"},
	"nmrdimer":  {Key: "nmrdimer", Kind: fitfn.KindAgg, Model: bindmodel.NMRDimer, Params: []string{"ke"}, Desc: "NMR self-association (dimerisation)"},
	"uvdimer":   {Key: "uvdimer", Kind: fitfn.KindAgg, Model: bindmodel.UVDimer, Params: []string{"ke"}, Desc: "UV self-association (dimerisation)"},
	"nmrcoek":   {Key: "nmrcoek", Kind: fitfn.KindAgg, Model: bindmodel.NMRCoEK, Params: []string{"ke", "rho"}, Desc: "NMR cooperative self-association (CoEK)"},
	"uvcoek":    {Key: "uvcoek", Kind: fitfn.KindAgg, Model: bindmodel.UVCoEK, Params: []string{"ke", "rho"}, Desc: "UV cooperative self-association (CoEK)"},
	"inhibitor": {Key: "inhibitor", Kind: fitfn.KindInhibitor, Model: bindmodel.InhibitorResponse, Params: []string{"hillslope", "logIC50"}, Desc: "log(inhibitor) vs normalised response"},
}

var validFlavours = map[bindmodel.Flavour]struct{}{
	bindmodel.FlavourNone:    {},
	bindmodel.FlavourAdd:     {},
	bindmodel.FlavourNonCoop: {},
	bindmodel.FlavourStat:    {},
}

// Lookup 以 key 取 entry。
func Lookup(key string) (Entry, bool) {
	e, ok := entries[key]
	return e, ok
}

// Keys 回傳全部模型 key（穩定排序）。
func Keys() []string {
	out := make([]string, 0, len(entries))
	for k := range entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All 回傳全部 entry（依 key 穩定排序）。
func All() []Entry {
	keys := Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, entries[k])
	}
	return out
}

// Construct 依 key 與設定旗標建構目標函數實例。
// 未知 key 或非法風味在這裡 fail fast，不會進到優化器。
// 空風味視為 "none"。
func Construct(key string, normalise bool, flavour bindmodel.Flavour) (*fitfn.Func, error) {
	e, ok := entries[key]
	if !ok {
		return nil, errs.Fatalf("unknown model key %q", key).AtStage(errs.StageConfig)
	}
	if flavour == "" {
		flavour = bindmodel.FlavourNone
	}
	if _, ok := validFlavours[flavour]; !ok {
		return nil, errs.Fatalf("unknown flavour %q for model %q", flavour, key).AtStage(errs.StageConfig)
	}
	return &fitfn.Func{
		Key:       key,
		Kind:      e.Kind,
		Model:     e.Model,
		Normalise: normalise,
		Flavour:   flavour,
	}, nil
}
