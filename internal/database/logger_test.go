package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	stmt := func() (string, int64) { return "SELECT 1", 1 }
	tests := []struct {
		name    string
		level   logger.LogLevel
		elapsed time.Duration
		err     error
		want    string
	}{
		{name: "Failure", level: logger.Warn, err: errors.New("boom"), want: "sql statement failed"},
		{name: "Not Found Ignored", level: logger.Warn, err: gorm.ErrRecordNotFound},
		{name: "Slow", level: logger.Warn, elapsed: time.Second, want: "slow sql statement"},
		{name: "Fast At Warn", level: logger.Warn},
		{name: "Fast At Info", level: logger.Info, want: "msg=\"sql statement\""},
		{name: "Silent", level: logger.Silent, err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil))).LogMode(tt.level)
			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), stmt, tt.err)

			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "sql=\"SELECT 1\"")
		})
	}
}
