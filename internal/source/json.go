package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"geocoding/internal/distance"
	"geocoding/internal/logger"
)

// Record：JSON 输入中的一个点，标签沿用 OSM 的 name / name:en / place
type Record struct {
	Lon  float64           `json:"lon"`
	Lat  float64           `json:"lat"`
	Tags map[string]string `json:"tags"`
}

// LoadJSON：读取 Record 数组文件
func LoadJSON(path string) (*Subsets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// 文档注释：流式解析 Record 数组
// 做法：逐条 Decode，不把整个数组读入内存；无名称的记录计入 skipped
func ReadJSON(r io.Reader) (*Subsets, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}
	s := &Subsets{}
	skipped := 0
	for i := 0; dec.More(); i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if !s.AddTagged(distance.Nano(rec.Lon, rec.Lat), rec.Tags) {
			skipped++
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	logger.L().Info("source_json_done", "points", s.Len(), "skipped", skipped)
	return s, nil
}
