package health

import (
	"context"
	"database/sql"
	"time"
)

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. DB may be nil when the
// in-memory registry is in use.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status reports process liveness plus registry reachability.
func (s *Service) Status(ctx context.Context) map[string]any {
	payload := map[string]any{"ok": true, "registry": "memory"}
	if s.DB == nil {
		return payload
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		payload["ok"] = false
		payload["registry"] = "unreachable"
		return payload
	}
	payload["registry"] = "postgres"
	return payload
}
