package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newBufferedQueryLogger(threshold time.Duration) (gormlogger.Interface, *bytes.Buffer) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf, Format: "json"})
	return newQueryLogger(logg, threshold), &buf
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	ql, buf := newBufferedQueryLogger(50 * time.Millisecond)
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(context.Background(), time.Now(), sqlFn, errors.New("broken pipe"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}

	buf.Reset()
	ql.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	if !strings.Contains(buf.String(), "db.query_slow") || !strings.Contains(buf.String(), "SELECT 1") {
		t.Fatalf("expected slow query log, got %q", buf.String())
	}
}

func TestQueryLoggerSkipsExpectedOutcomes(t *testing.T) {
	ql, buf := newBufferedQueryLogger(time.Second)
	sqlFn := func() (string, int64) { return "SELECT 1", 0 }

	ql.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	ql.Trace(context.Background(), time.Now(), sqlFn, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("expected silent mode to drop output, got %q", buf.String())
	}
}

func TestNewQueryLoggerWithoutLoggerDiscards(t *testing.T) {
	if newQueryLogger(nil, time.Second) != gormlogger.Discard {
		t.Fatal("expected discard logger when no service logger is set")
	}
}
