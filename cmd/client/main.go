package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:2567", "服务器地址")
	logLevel := flag.String("log-level", "info", "日志级别")
	flag.Parse()

	// 日志只写文件，终端留给界面
	opts := logger.Options{Level: *logLevel, Quiet: true}
	if path, err := logger.DefaultFile("quiz-room"); err == nil {
		opts.File = path
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
	}
	defer logger.Close()

	serverURL := *serverAddr
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		serverURL = "http://" + serverURL
	}

	p := tea.NewProgram(ui.NewModel(serverURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "启动客户端时出错: %v\n", err)
		os.Exit(1)
	}
}
