package synclog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/synclog"
)

// HistoryFilter narrows sync history queries
type HistoryFilter struct {
	ChannelID *uuid.UUID
	Type      string
	Status    string
	Since     *time.Time
	Page      int
	PageSize  int
}

// EntryResponse is the API view of one sync history record
type EntryResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ChannelID          *uuid.UUID `json:"channel_id,omitempty"`
	Type               string     `json:"type"`
	Direction          string     `json:"direction"`
	Status             string     `json:"status"`
	Processed          int        `json:"processed"`
	Succeeded          int        `json:"succeeded"`
	Failed             int        `json:"failed"`
	RateLimitedRetries int        `json:"rate_limited_retries"`
	DurationMillis     int64      `json:"duration_ms"`
	ErrorDetail        string     `json:"error_detail,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
}

// Service answers sync history queries
type Service struct {
	repo synclog.Repository
}

// NewService creates a sync history service
func NewService(repo synclog.Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves sync history entries, newest-first
func (s *Service) List(ctx context.Context, filter HistoryFilter) ([]EntryResponse, int64, error) {
	f := synclog.Filter{
		ChannelID: filter.ChannelID,
		Since:     filter.Since,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	if filter.Type != "" {
		t := synclog.SyncType(filter.Type)
		f.Type = &t
	}
	if filter.Status != "" {
		st := synclog.Status(filter.Status)
		f.Status = &st
	}

	entries, total, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:                 e.ID,
			ChannelID:          e.ChannelID,
			Type:               string(e.Type),
			Direction:          string(e.Direction),
			Status:             string(e.Status),
			Processed:          e.Processed,
			Succeeded:          e.Succeeded,
			Failed:             e.Failed,
			RateLimitedRetries: e.RateLimitedRetries,
			DurationMillis:     e.Duration.Milliseconds(),
			ErrorDetail:        e.ErrorDetail,
			StartedAt:          e.StartedAt,
			FinishedAt:         e.FinishedAt,
		})
	}
	return out, total, nil
}
