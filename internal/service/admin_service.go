package service

import (
	"context"
	"time"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/logger"
)

const (
	LogSourceApp   = "app"
	LogSourceTools = "tools"
)

// zapTimeLayout is what zapcore.ISO8601TimeEncoder writes
const zapTimeLayout = "2006-01-02T15:04:05.000Z0700"

// IndexCounter reports the size of the lexical index
type IndexCounter interface {
	Count() (uint64, error)
}

// SessionCounter reports how many dialog sessions are open
type SessionCounter interface {
	Count() int
}

type IAdminService interface {
	GetSystemLogs(ctx context.Context, source string, page, limit int, level string) (*dto.LogPageResponse, error)
	GetLogDetail(ctx context.Context, source, logId string) (*dto.LogDetailResponse, error)
	GetIndexStats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type adminService struct {
	appLog   logger.ILogger
	toolLog  logger.ILogger
	index    IndexCounter
	sessions SessionCounter
}

func NewAdminService(appLog, toolLog logger.ILogger, index IndexCounter, sessions SessionCounter) IAdminService {
	return &adminService{
		appLog:   appLog,
		toolLog:  toolLog,
		index:    index,
		sessions: sessions,
	}
}

func (a *adminService) source(name string) logger.ILogger {
	if name == LogSourceTools {
		return a.toolLog
	}
	return a.appLog
}

func (a *adminService) GetSystemLogs(ctx context.Context, source string, page, limit int, level string) (*dto.LogPageResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	logs, err := a.source(source).GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, toLogListResponse(l))
	}
	return &dto.LogPageResponse{Page: page, Limit: limit, Items: items}, nil
}

func (a *adminService) GetLogDetail(ctx context.Context, source, logId string) (*dto.LogDetailResponse, error) {
	l, err := a.source(source).GetLogById(logId)
	if err != nil {
		return nil, err
	}
	return &dto.LogDetailResponse{
		LogListResponse: *toLogListResponse(*l),
		Details:         l.Details,
	}, nil
}

func (a *adminService) GetIndexStats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	count, err := a.index.Count()
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{
		LexicalDocuments: count,
		OpenSessions:     a.sessions.Count(),
	}, nil
}

func toLogListResponse(l logger.LogEntry) *dto.LogListResponse {
	ts, err := time.Parse(zapTimeLayout, l.Timestamp)
	if err != nil {
		ts, _ = time.Parse(time.RFC3339, l.Timestamp)
	}
	return &dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: ts,
	}
}
