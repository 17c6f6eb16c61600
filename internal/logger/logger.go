// 包 logger：进程级日志器的初始化与获取；级别与格式由环境变量控制
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// 默认日志器：进程内共享，命令与各包输出保持同一格式
var defaultLogger atomic.Pointer[slog.Logger]

// ParseLevel：LOG_LEVEL 取值 debug|info|warn|error，其它值按 info 处理
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New：按格式构建日志器；format 为 json 时输出 JSON，否则输出 key=value 文本
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup：按 LOG_LEVEL / LOG_FORMAT 初始化默认日志器
// 约束：输出目标固定为标准错误，标准输出留给命令的结果
func Setup() *slog.Logger {
	l := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
	defaultLogger.Store(l)
	return l
}

// Set：替换默认日志器（测试中用于捕获输出）
func Set(l *slog.Logger) { defaultLogger.Store(l) }

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return Setup()
}
