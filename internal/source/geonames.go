package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"geocoding/internal/distance"
	"geocoding/internal/logger"
)

// geonames 导出文件的列数与用到的列
const (
	geonamesColumns = 19
	geonamesName    = 1
	geonamesASCII   = 2
	geonamesLat     = 4
	geonamesLon     = 5
	geonamesClass   = 6
	geonamesCode    = 7
)

// LoadGeonames：读取 geonames 制表符分隔文件（allCountries.txt / cities*.txt），
// 以 .zst 结尾时先解压
func LoadGeonames(path string) (*Subsets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	s, err := ReadGeonames(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// 文档注释：解析 geonames 行
// 约束：列数不符或坐标无法解析的行跳过；特征类 P 为居民点，A 类 PCL* 为国家；
// 名称优先使用 ASCII 名（与 name:en 优先的约定一致），为空时回退原名
func ReadGeonames(r io.Reader) (*Subsets, error) {
	s := &Subsets{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	skipped := 0
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != geonamesColumns {
			skipped++
			continue
		}
		lat, err1 := strconv.ParseFloat(fields[geonamesLat], 64)
		lon, err2 := strconv.ParseFloat(fields[geonamesLon], 64)
		name := strings.TrimSpace(fields[geonamesASCII])
		if name == "" {
			name = strings.TrimSpace(fields[geonamesName])
		}
		if err1 != nil || err2 != nil || name == "" {
			skipped++
			continue
		}
		kind := KindOther
		switch {
		case fields[geonamesClass] == "P":
			kind = KindSettlement
		case fields[geonamesClass] == "A" && strings.HasPrefix(fields[geonamesCode], "PCL"):
			kind = KindCountry
		}
		s.Add(kind, distance.Nano(lon, lat), name)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	logger.L().Info("source_geonames_done", "points", s.Len(), "skipped", skipped)
	return s, nil
}
