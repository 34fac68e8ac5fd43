package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	db Pinger
}

// NewService constructs a new health service. db may be nil when running on memory repositories.
func NewService(db Pinger) *Service {
	return &Service{db: db}
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
}

// Status reports liveness and, when configured, database reachability.
func (s *Service) Status(ctx context.Context) Report {
	if s == nil || s.db == nil {
		return Report{OK: true, Database: "memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return Report{OK: false, Database: "unreachable"}
	}
	return Report{OK: true, Database: "ok"}
}
