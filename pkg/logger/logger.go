package logger

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Log 是一个全局的、配置好的 logrus 实例
// 包初始化时先给一个输出到标准输出的默认实例，测试和工具命令不调用InitLogger也能直接用
var Log = logrus.New()

// InitLogger 初始化全局的Logger实例：level为日志级别，file为空时只输出到控制台
func InitLogger(level, file string) {
	Log = logrus.New()

	// JSON格式，结构化日志方便ELK、Loki等工具分析
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// 日志同时输出到控制台和文件
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("无法打开日志文件: %v", err)
		}
		Log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		Log.SetOutput(os.Stdout)
	}

	// 解析不了的级别就退回Info，开发时可以是Debug
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
