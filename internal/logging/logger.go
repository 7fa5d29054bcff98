package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger writes leveled lines to a file, or to stderr when no file is
// configured.
type Logger struct {
	file   *os.File
	logger *log.Logger
}

// New creates a logger appending to path. An empty path logs to stderr.
func New(path string) (*Logger, error) {
	if path == "" {
		return &Logger{logger: log.New(os.Stderr, "", log.LstdFlags)}, nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return &Logger{file: file, logger: log.New(file, "", log.LstdFlags)}, nil
}

func (l *Logger) Info(msg string)  { l.logger.SetPrefix("INFO: "); l.logger.Println(msg) }
func (l *Logger) Warn(msg string)  { l.logger.SetPrefix("WARN: "); l.logger.Println(msg) }
func (l *Logger) Error(msg string) { l.logger.SetPrefix("ERROR: "); l.logger.Println(msg) }

func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }

// Close closes the log file, if any.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}
