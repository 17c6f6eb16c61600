// 包 rgc：带名称的 k-d 树的紧凑二进制格式
// 布局（依次写入，无魔数与版本号）：
//
//	count            u32
//	longitudes       sign magnitude  × count
//	latitudes        sign magnitude  × count
//	lesser refs      magnitude monotonic × count
//	greater refs     magnitude monotonic × count
//	word counts      magnitude × count
//	dictionary size  u32
//	word lengths     magnitude × dictionary size
//	word bytes       拼接的字典词
//	reference count  u32
//	word refs        magnitude × reference count（按节点、词序）
//
// 名称按单个空格切分为词，字典为去重后按字节序严格递增的词表，词引用即排序后的下标。
// 单个名称不超过 MaxNameBytes 字节，编码与解码两侧都做检查。
package rgc

import (
	"errors"

	"geocoding/internal/kdtree"
)

// NamesTree：坐标为纳度（1e-9 度）经纬度、值为名称的树
type NamesTree = kdtree.Tree[int64, string]

// NamedPoint：NamesTree 的构建输入
type NamedPoint = kdtree.Point[int64, string]

// MaxNameBytes：单个名称的字节上限
const MaxNameBytes = 4096

var (
	ErrInvalidUTF8       = errors.New("rgc: dictionary word is not valid UTF-8")
	ErrInvalidDictionary = errors.New("rgc: dictionary not strictly increasing")
	ErrInvalidWordRef    = errors.New("rgc: invalid word reference")
	ErrInvalidTree       = errors.New("rgc: invalid tree structure")
	ErrTooManyWords      = errors.New("rgc: too many words")
	ErrNameTooLong       = errors.New("rgc: name too long")
)
