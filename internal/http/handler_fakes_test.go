package httpapi

import (
	"context"
	"io"
	"strings"

	"lifeband-data/internal/domain"
	"lifeband-data/internal/pipeline"
	"lifeband-data/internal/service"
)

// ==================== 处理器依赖的假实现（仅测试用） ====================

func newJSONBody(s string) io.Reader {
	return strings.NewReader(s)
}

type fakeUsers struct {
	known map[string]bool
	err   error
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.known[userID] {
		return nil, nil
	}
	return &domain.User{UserID: userID, Name: "Test User"}, nil
}

type fakeIngester struct {
	result *service.IngestResult
	err    error

	payload pipeline.RawPayload
	device  service.DeviceContext
}

func (f *fakeIngester) Ingest(_ context.Context, payload pipeline.RawPayload, device service.DeviceContext) (*service.IngestResult, error) {
	f.payload = payload
	f.device = device
	return f.result, f.err
}

type fakeTelemetryQueries struct {
	latest    *domain.TelemetrySample
	latestErr error

	page       *domain.TelemetryPage
	historyErr error
	historyReq service.HistoryRequest

	analytics    *domain.TelemetryAnalytics
	analyticsErr error
	period       string
}

func (f *fakeTelemetryQueries) Latest(_ context.Context, _ string) (*domain.TelemetrySample, error) {
	return f.latest, f.latestErr
}

func (f *fakeTelemetryQueries) History(_ context.Context, _ string, req service.HistoryRequest) (*domain.TelemetryPage, error) {
	f.historyReq = req
	return f.page, f.historyErr
}

func (f *fakeTelemetryQueries) Analytics(_ context.Context, _ string, period string) (*domain.TelemetryAnalytics, error) {
	f.period = period
	if f.analyticsErr != nil {
		return nil, f.analyticsErr
	}
	return f.analytics, nil
}

type fakeActivityQueries struct {
	page    *domain.ActivityPage
	listErr error

	counts   *domain.ActivityCounts
	countErr error

	typeFilter string
	limit      int
	offset     int
}

func (f *fakeActivityQueries) List(_ context.Context, _, typeFilter string, limit, offset int) (*domain.ActivityPage, error) {
	f.typeFilter = typeFilter
	f.limit = limit
	f.offset = offset
	return f.page, f.listErr
}

func (f *fakeActivityQueries) CountsByType(_ context.Context, _ string) (*domain.ActivityCounts, error) {
	return f.counts, f.countErr
}

type fakeSharer struct {
	result *service.ShareLocationResult
	err    error
}

func (f *fakeSharer) ShareLocation(_ context.Context, _ string) (*service.ShareLocationResult, error) {
	return f.result, f.err
}

type fakeRegistrar struct {
	registered map[string]string
	err        error
}

func (f *fakeRegistrar) Register(_ context.Context, deviceID, userID string) error {
	if f.err != nil {
		return f.err
	}
	if f.registered == nil {
		f.registered = make(map[string]string)
	}
	f.registered[deviceID] = userID
	return nil
}
