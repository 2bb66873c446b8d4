package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LineFormatter renders entries as a single line:
// [2026-01-02 15:04:05] [a1b2c3d4] [info ] message | key=value
type LineFormatter struct{}

// Format implements logrus.Formatter
func (f *LineFormatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	reqID := "--------"
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		reqID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	fmt.Fprintf(buffer, "[%s] [%s] [%-5s] %s",
		entry.Time.Format("2006-01-02 15:04:05"),
		reqID,
		level,
		strings.TrimRight(entry.Message, "\r\n"),
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "request_id" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		buffer.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(buffer, " %s=%v", k, entry.Data[k])
		}
	}
	buffer.WriteByte('\n')
	return buffer.Bytes(), nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// Setup configures the standard logrus logger and routes gin's output through it.
// When file is empty logs go to stdout, otherwise to a size-rotated file.
// The returned closer releases the log file and is never nil.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&LineFormatter{})

	var closer io.Closer = closerFunc(func() error { return nil })
	if file == "" {
		log.SetOutput(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		w := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
			Compress:   true,
		}
		log.SetOutput(w)
		closer = w
	}

	gin.DefaultWriter = log.StandardLogger().Writer()
	gin.DefaultErrorWriter = log.StandardLogger().WriterLevel(log.ErrorLevel)
	return closer, nil
}
