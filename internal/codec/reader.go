package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader：从字节源解码整数序列
// 约束：数据提前结束返回 io.ErrUnexpectedEOF；其他源错误包装后原样返回
type Reader struct {
	r   io.Reader
	buf []byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) scratch(n int) []byte {
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	return r.buf[:n]
}

func (r *Reader) readFull(p []byte) error {
	_, err := io.ReadFull(r.r, p)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// 按块读取 count 条定长记录，单次分配不超过 chunkBytes
func (r *Reader) readRecords(count, size int, fn func(rec []byte) error) error {
	if size == 0 {
		return nil
	}
	per := max(1, chunkBytes/size)
	for count > 0 {
		m := min(count, per)
		buf := r.scratch(m * size)
		if err := r.readFull(buf); err != nil {
			return err
		}
		for i := 0; i < m; i++ {
			if err := fn(buf[i*size : (i+1)*size]); err != nil {
				return err
			}
		}
		count -= m
	}
	return nil
}

func (r *Reader) readWidth(minWidth, maxWidth int) (int, error) {
	b := r.scratch(1)
	if err := r.readFull(b); err != nil {
		return 0, err
	}
	w := int(b[0])
	if w < minWidth || w > maxWidth {
		return 0, fmt.Errorf("width %d not in [%d, %d]: %w", w, minWidth, maxWidth, ErrInvalidWidth)
	}
	return w, nil
}

// ReadU32：读取 32 位小端整数
func (r *Reader) ReadU32() (uint32, error) {
	b := r.scratch(4)
	if err := r.readFull(b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadBytes：读满 p
func (r *Reader) ReadBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return r.readFull(p)
}

// ReadSignMagnitude：读取 WriteSignMagnitude 写出的 n 个值
func (r *Reader) ReadSignMagnitude(n int) ([]int64, error) {
	if n == 0 {
		return []int64{}, nil
	}
	width, err := r.readWidth(1, maxWidth64)
	if err != nil {
		return nil, fmt.Errorf("sign magnitude header: %w", err)
	}
	mags := make([]uint64, 0, min(n, chunkBytes))
	err = r.readRecords(n, width, func(rec []byte) error {
		mags = append(mags, readLE(rec))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign magnitude values: %w", err)
	}
	out := make([]int64, 0, len(mags))
	prev := int64(0)
	err = r.readRecords(n, 1, func(rec []byte) error {
		mag := mags[len(out)]
		var delta int64
		switch rec[0] {
		case signPositive:
			delta = int64(mag)
		case signNegative:
			// 1<<63 没有对应的正数，按补码读出即为 math.MinInt64
			if mag == 1<<63 {
				delta = int64(mag)
			} else {
				delta = -int64(mag)
			}
		default:
			return fmt.Errorf("sign %d at index %d: %w", rec[0], len(out), ErrInvalidSign)
		}
		prev += delta
		out = append(out, prev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign magnitude signs: %w", err)
	}
	return out, nil
}

// 文档注释：读取 WriteMagnitudeMonotonic 写出的 n 个值
// 约束：宽度 0 的序列不占负载字节，结果按块增长，不按声明的 n 一次性分配
func (r *Reader) ReadMagnitudeMonotonic(n int) ([]uint32, error) {
	out := make([]uint32, 0, min(n, chunkBytes))
	prev := uint32(0)
	err := r.eachMagnitude(n, "magnitude monotonic", func(_ int, v uint32) error {
		prev += v
		out = append(out, prev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadMagnitude：读取 WriteMagnitude 写出的 n 个值，分配方式同 ReadMagnitudeMonotonic
func (r *Reader) ReadMagnitude(n int) ([]uint32, error) {
	out := make([]uint32, 0, min(n, chunkBytes))
	err := r.EachMagnitude(n, func(_ int, v uint32) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// 文档注释：逐个读取 WriteMagnitude 写出的 n 个值并交给 fn，不保留结果
// 背景：宽度 0 时声明的 n 没有负载字节支撑，调用方可在 fn 中做结构校验并提前中止
// 返回：fn 出错即停止读取，错误包装后返回，可用 errors.Is 判断
func (r *Reader) EachMagnitude(n int, fn func(i int, v uint32) error) error {
	return r.eachMagnitude(n, "magnitude", fn)
}

func (r *Reader) eachMagnitude(n int, kind string, fn func(i int, v uint32) error) error {
	if n == 0 {
		return nil
	}
	width, err := r.readWidth(0, maxWidth32)
	if err != nil {
		return fmt.Errorf("%s header: %w", kind, err)
	}
	if width == 0 {
		for i := 0; i < n; i++ {
			if err := fn(i, 0); err != nil {
				return err
			}
		}
		return nil
	}
	i := 0
	err = r.readRecords(n, width, func(rec []byte) error {
		v := uint32(readLE(rec))
		idx := i
		i++
		return fn(idx, v)
	})
	if err != nil {
		return fmt.Errorf("%s values: %w", kind, err)
	}
	return nil
}
