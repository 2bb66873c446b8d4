package logging

import (
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFormatter(t *testing.T) {
	entry := &log.Entry{
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "error deleting upload\n",
		Data:    log.Fields{"request_id": "abc", "path": "uploads/upload-1", "endpoint": "/generate"},
	}

	out, err := (&LineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-01-02 15:04:05] [abc] [warn ] error deleting upload | endpoint=/generate path=uploads/upload-1\n",
		string(out))
}

func TestLineFormatterWithoutRequestID(t *testing.T) {
	entry := &log.Entry{
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   log.InfoLevel,
		Message: "listening",
		Data:    log.Fields{},
	}

	out, err := (&LineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2026-01-02 15:04:05] [--------] [info ] listening\n", string(out))
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, err := Setup("loud", "")
	assert.Error(t, err)
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")
	closer, err := Setup("debug", path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = closer.Close()
		_, _ = Setup("info", "")
	})

	log.Info("hello file")
	assert.FileExists(t, path)
}
