package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
		want Report
	}{
		{"memory", NewService(nil), Report{OK: true, Database: "memory"}},
		{"db ok", NewService(fakePinger{}), Report{OK: true, Database: "ok"}},
		{"db down", NewService(fakePinger{err: errors.New("refused")}), Report{OK: false, Database: "unreachable"}},
	}
	for _, tt := range tests {
		if got := tt.svc.Status(context.Background()); got != tt.want {
			t.Fatalf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
	}
}
