package codec

import (
	"encoding/binary"
	"io"
)

// Writer：把整数序列编码写入字节流
// 约束：每个序列先在内存中拼好，再以一次 Write 交给下游；下游错误原样返回
type Writer struct {
	w   io.Writer
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) flush() error {
	_, err := w.w.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

// WriteU32：写入 32 位小端整数
func (w *Writer) WriteU32(v uint32) error {
	w.buf = binary.LittleEndian.AppendUint32(w.buf[:0], v)
	return w.flush()
}

// WriteBytes：原样写入 b
func (w *Writer) WriteBytes(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, err := w.w.Write(b)
	return err
}

// WriteSignMagnitude：差值编码的有符号序列，依次为宽度字节、全部绝对值、每值一个符号字节
func (w *Writer) WriteSignMagnitude(values []int64) error {
	if len(values) == 0 {
		return nil
	}
	var maxMag uint64
	prev := int64(0)
	for _, v := range values {
		maxMag = max(maxMag, magnitude(v-prev))
		prev = v
	}
	width := max(1, byteWidth(maxMag))
	buf := append(w.buf[:0], byte(width))
	prev = 0
	for _, v := range values {
		buf = appendLE(buf, magnitude(v-prev), width)
		prev = v
	}
	prev = 0
	for _, v := range values {
		sign := byte(signPositive)
		if v-prev < 0 {
			sign = signNegative
		}
		buf = append(buf, sign)
		prev = v
	}
	w.buf = buf
	return w.flush()
}

// 文档注释：差值编码的无符号序列
// 约束：差值按 uint32 回绕，序列不必递增；递增时宽度更小
func (w *Writer) WriteMagnitudeMonotonic(values []uint32) error {
	if len(values) == 0 {
		return nil
	}
	var maxDelta uint32
	prev := uint32(0)
	for _, v := range values {
		maxDelta = max(maxDelta, v-prev)
		prev = v
	}
	width := byteWidth(uint64(maxDelta))
	buf := append(w.buf[:0], byte(width))
	if width > 0 {
		prev = 0
		for _, v := range values {
			buf = appendLE(buf, uint64(v-prev), width)
			prev = v
		}
	}
	w.buf = buf
	return w.flush()
}

// WriteMagnitude：不做差值，原值写出
func (w *Writer) WriteMagnitude(values []uint32) error {
	if len(values) == 0 {
		return nil
	}
	var maxValue uint32
	for _, v := range values {
		maxValue = max(maxValue, v)
	}
	width := byteWidth(uint64(maxValue))
	buf := append(w.buf[:0], byte(width))
	if width > 0 {
		for _, v := range values {
			buf = appendLE(buf, uint64(v), width)
		}
	}
	w.buf = buf
	return w.flush()
}
