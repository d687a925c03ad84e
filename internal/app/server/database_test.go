package server

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/config"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "file:studio.db", want: "file:studio.db?_pragma=foreign_keys(1)"},
		{url: "file:studio?mode=memory", want: "file:studio?mode=memory&_pragma=foreign_keys(1)"},
		{url: "file:studio.db?_pragma=foreign_keys(1)", want: "file:studio.db?_pragma=foreign_keys(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := sqliteDSN(tt.url); got != tt.want {
				t.Fatalf("sqliteDSN(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewDatabase_SQLiteWithoutPragma(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{Driver: "sqlite", URL: "file:new_database?mode=memory"}}

	drv, cleanup, err := NewDatabase(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	if err := drv.DB().Ping(); err != nil {
		t.Fatalf("expected open database, got %v", err)
	}

	cleanup()
	if err := drv.DB().Ping(); err == nil {
		t.Fatal("expected cleanup to close the database")
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{Driver: "mysql", URL: "root@/studio"}}

	drv, cleanup, err := NewDatabase(cfg, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if drv != nil || cleanup != nil {
		t.Fatalf("expected nothing to clean up, got %v %v", drv, cleanup != nil)
	}
}

type closeCountingProducer struct {
	sarama.SyncProducer
	closed int
	err    error
}

func (p *closeCountingProducer) Close() error {
	p.closed++
	return p.err
}

func TestCloseProducer(t *testing.T) {
	producer := &closeCountingProducer{err: errors.New("broker gone")}

	closeProducer(producer, zerolog.Nop())()

	if producer.closed != 1 {
		t.Fatalf("expected one Close call, got %d", producer.closed)
	}
}
