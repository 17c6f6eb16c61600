// 包 container：rgc 树文件的压缩容器（zstd 帧，带内容校验）
// 约束：文件内容即 zstd 压缩后的 rgc 字节流，不另加文件头；写入经临时文件 + 重命名原子替换
package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zstd"

	"geocoding/internal/logger"
	"geocoding/internal/rgc"
)

// Ext：树文件扩展名
const Ext = ".rgc.zst"

// DefaultLevel：默认压缩级别（zstd 级别语义，1..22）
const DefaultLevel = 9

// 文档注释：把树以 zstd 压缩写入 w
// 约束：level 按 zstd 级别映射到编码器档位；单线程编码，同样的输入得到同样的字节；w 的错误原样包装返回
func Write(w io.Writer, t *rgc.NamesTree, level int) error {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return err
	}
	if err := rgc.Encode(enc, t); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd close: %w", err)
	}
	return nil
}

// Read：解压并解码 r 中的树
// 约束：解码后继续读到帧尾，使 zstd 内容校验和一定被核对
func Read(r io.Reader) (*rgc.NamesTree, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	t, err := rgc.Decode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, dec); err != nil {
		return nil, fmt.Errorf("zstd frame: %w", err)
	}
	return t, nil
}

// 文档注释：原子写入树文件
// 做法：先写 path.tmp 并落盘，成功后重命名覆盖 path，读者不会看到写了一半的文件
func Save(path string, t *rgc.NamesTree, level int) error {
	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, t, level); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	var size uint64
	if st, err := os.Stat(path); err == nil {
		size = uint64(st.Size())
	}
	logger.L().Info("container_save_done", "path", path, "nodes", t.Len(), "size", humanize.Bytes(size), "ms", time.Since(start).Milliseconds())
	return nil
}

// 文档注释：只读映射文件并解码
// 约束：解码结果不引用映射内存，返回前即解除映射；空文件视为截断
func Load(path string) (*rgc.NamesTree, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("load %s: empty file: %w", path, io.ErrUnexpectedEOF)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer m.Unmap()
	t, err := Read(bytes.NewReader(m))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.L().Info("container_load_done", "path", path, "nodes", t.Len(), "size", humanize.Bytes(uint64(st.Size())), "ms", time.Since(start).Milliseconds())
	return t, nil
}
