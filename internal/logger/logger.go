package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxLogFileSize = 10 * 1024 * 1024

var (
	logFile *os.File
	logPath string
)

// Options 日志初始化参数
type Options struct {
	Level  string // debug/info/warn/error
	Pretty bool   // 控制台彩色输出，否则输出 JSON
	File   string // 额外写入的日志文件，为空则只写 stderr
	Quiet  bool   // 不写 stderr（终端客户端使用，避免破坏界面）
}

// Init 初始化全局 zerolog 日志
func Init(opts Options) error {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var writers []io.Writer
	if !opts.Quiet {
		if opts.Pretty {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if logPath != "" {
		log.Info().Str("path", logPath).Msg("日志文件已打开")
	}
	return nil
}

// DefaultFile 返回用户目录下的日志文件路径
func DefaultFile(app string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+app, "debug.log"), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Rotate if file is too large (> 10MB)
	if info, err := f.Stat(); err == nil && info.Size() > maxLogFileSize {
		_ = f.Close()
		backupPath := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backupPath)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create new log file: %w", err)
		}
	}

	Close()
	logFile = f
	logPath = path
	return f, nil
}

// Close closes the log file
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// LogPanic logs a recovered panic with stack trace
func LogPanic(r any) {
	log.Error().Str("stack", string(debug.Stack())).Msgf("panic: %v", r)
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	return logPath
}
