// 包 source：命名点数据的导入，按类别分为国家、居民点与其它三个子集
// 背景：三个子集分别建树、分别落盘，查询时按需选择，避免城市查询被大量兴趣点淹没
package source

import (
	"cmp"
	"slices"
	"strings"

	"geocoding/internal/rgc"
)

// Kind：点的类别
type Kind int

const (
	KindOther Kind = iota
	KindSettlement
	KindCountry
)

// Kinds：全部类别，按输出文件顺序
var Kinds = []Kind{KindOther, KindSettlement, KindCountry}

// String：类别名，同时用作文件名前缀与指标标签
func (k Kind) String() string {
	switch k {
	case KindSettlement:
		return "settlements"
	case KindCountry:
		return "countries"
	default:
		return "other"
	}
}

// ParseKind：String 的反向解析
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}
	return KindOther, false
}

// 视为居民点的 place 取值
var settlementPlaces = []string{
	"city",
	"town",
	"village",
	"hamlet",
	"isolated_dwelling",
	"farm",
	"allotments",
}

// 文档注释：按 OSM 风格标签确定名称与类别
// 约束：name:en 优先于 name；两者都没有时 ok 为 false，该点不入库
func Classify(tags map[string]string) (name string, kind Kind, ok bool) {
	name, ok = tags["name:en"]
	if !ok {
		name, ok = tags["name"]
	}
	if !ok {
		return "", KindOther, false
	}
	place := tags["place"]
	switch {
	case place == "country":
		kind = KindCountry
	case slices.Contains(settlementPlaces, place):
		kind = KindSettlement
	default:
		kind = KindOther
	}
	return name, kind, true
}

// Subsets：按类别收集的构建输入
type Subsets struct {
	points [3][]rgc.NamedPoint
}

// Add：追加一个点；坐标单位为纳度
func (s *Subsets) Add(kind Kind, location [2]int64, name string) {
	s.points[kind] = append(s.points[kind], rgc.NamedPoint{Location: location, Value: name})
}

// AddTagged：按标签分类后追加，无名称时忽略
func (s *Subsets) AddTagged(location [2]int64, tags map[string]string) bool {
	name, kind, ok := Classify(tags)
	if ok {
		s.Add(kind, location, name)
	}
	return ok
}

// Points：某一类别的点；调用方可在构建时直接使用（构建会移走名称）
func (s *Subsets) Points(kind Kind) []rgc.NamedPoint { return s.points[kind] }

// Len：全部点数
func (s *Subsets) Len() int {
	return len(s.points[0]) + len(s.points[1]) + len(s.points[2])
}

// 文档注释：按（经度, 纬度, 名称）排序每个子集
// 背景：输入来源的顺序不稳定，排序后同一份数据总是得到字节一致的输出文件
func (s *Subsets) Sort() {
	for k := range s.points {
		slices.SortFunc(s.points[k], func(a, b rgc.NamedPoint) int {
			return cmp.Or(
				cmp.Compare(a.Location[0], b.Location[0]),
				cmp.Compare(a.Location[1], b.Location[1]),
				strings.Compare(a.Value, b.Value),
			)
		})
	}
}
