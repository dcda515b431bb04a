package client

import (
	"context"
	"encoding/json"
	"time"
)

const logsPath = "/api/admin/logs"

// LogEntry is one audit log record
type LogEntry struct {
	ID        ID              `json:"id"`
	Level     string          `json:"level"`
	Action    string          `json:"action"`
	Actor     string          `json:"actor"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type LogFilter struct {
	Level   string
	Actor   string
	Actions []string
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

func (f LogFilter) query() Query {
	q := Query{
		{Key: "level", Value: f.Level},
		{Key: "actor", Value: f.Actor},
		{Key: "action", Value: f.Actions},
		{Key: "from", Value: f.From},
		{Key: "to", Value: f.To},
	}
	return withPaging(q, f.Page, f.PerPage)
}

func (c *Client) ListLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	return list[LogEntry](ctx, c, logsPath, filter.query())
}
