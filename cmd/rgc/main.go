package main

import (
	"os"

	"github.com/joho/godotenv"

	"geocoding/internal/logger"
)

// 文档注释：rgc 命令行入口
// 背景：把点数据转换为压缩树文件，并提供查看与最近邻查询
// 约束：.env 可选；结果写标准输出，日志写标准错误；出错时以退出码 1 结束
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	if err := newRootCmd().Execute(); err != nil {
		l.Error("rgc_error", "err", err)
		os.Exit(1)
	}
}
