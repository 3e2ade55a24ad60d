package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileHook appends every entry as one JSON line to a file.
type FileHook struct {
	sync.Mutex

	file      *os.File
	formatter *logrus.JSONFormatter
	levels    []logrus.Level
}

// NewFileHook opens path for appending. Entries below minLevel are dropped.
func NewFileHook(path string, minLevel logrus.Level) (*FileHook, error) {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open log file %s: %v\n", path, err)
		return nil, err
	}

	hook := &FileHook{
		file:      logFile,
		formatter: &logrus.JSONFormatter{},
	}
	for _, level := range logrus.AllLevels {
		if level <= minLevel {
			hook.levels = append(hook.levels, level)
		}
	}
	return hook, nil
}

func (hook *FileHook) Fire(entry *logrus.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.Lock()
	defer hook.Unlock()
	if _, err = hook.file.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "unable to write to log file: %v\n", err)
		return err
	}
	return nil
}

func (hook *FileHook) Levels() []logrus.Level {
	return hook.levels
}

func (hook *FileHook) Close() error {
	hook.Lock()
	defer hook.Unlock()
	return hook.file.Close()
}
