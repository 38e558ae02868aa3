/*
 * @module logger/logger
 * @description 全局结构化日志初始化，JSON输出到stdout
 * @architecture 基础设施层 - 日志
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取LOG_LEVEL -> 构造JSON处理器 -> 设为slog默认记录器
 * @rules 日志级别由LOG_LEVEL环境变量控制，默认info
 * @dependencies log/slog
 * @refs main.go
 */

package logger

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger 初始化全局日志记录器
func InitLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
