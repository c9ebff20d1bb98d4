package service

import (
	"context"
	"sync"
	"time"

	"lifeband-data/internal/cache"
	"lifeband-data/internal/domain"
	"lifeband-data/internal/repository"
)

// ==================== 存储接口的内存实现（仅测试用） ====================

type fakeTelemetryStore struct {
	inserted  []*domain.TelemetrySample
	insertErr error

	latest    *domain.TelemetrySample
	latestErr error

	page    *domain.TelemetryPage
	pageErr error

	deleted     int64
	deleteErr   error
	deleteMu    sync.Mutex
	deleteCalls int
	cutoffs     []time.Time
	deleteBlock chan struct{} // 非 nil 时 DeleteOlderThan 阻塞直到被关闭

	analytics    *domain.TelemetryAnalytics
	analyticsErr error
}

func (f *fakeTelemetryStore) Insert(_ context.Context, sample *domain.TelemetrySample) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	sample.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, sample)
	return nil
}

func (f *fakeTelemetryStore) Latest(_ context.Context, _ string) (*domain.TelemetrySample, error) {
	return f.latest, f.latestErr
}

func (f *fakeTelemetryStore) Range(_ context.Context, _ string, _ repository.TelemetryRangeFilter) (*domain.TelemetryPage, error) {
	return f.page, f.pageErr
}

func (f *fakeTelemetryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.deleteMu.Lock()
	f.deleteCalls++
	f.cutoffs = append(f.cutoffs, cutoff)
	f.deleteMu.Unlock()
	if f.deleteBlock != nil {
		<-f.deleteBlock
	}
	return f.deleted, f.deleteErr
}

func (f *fakeTelemetryStore) deleteCount() int {
	f.deleteMu.Lock()
	defer f.deleteMu.Unlock()
	return f.deleteCalls
}

func (f *fakeTelemetryStore) AggregateWindow(_ context.Context, _ string, _ time.Time) (*domain.TelemetryAnalytics, error) {
	return f.analytics, f.analyticsErr
}

type fakeActivityStore struct {
	records   []*domain.ActivityRecord
	createErr error

	page     *domain.ActivityPage
	counts   *domain.ActivityCounts
	listErr  error
	countErr error
}

func (f *fakeActivityStore) Create(_ context.Context, record *domain.ActivityRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeActivityStore) List(_ context.Context, _, _ string, _, _ int) (*domain.ActivityPage, error) {
	return f.page, f.listErr
}

func (f *fakeActivityStore) CountsByType(_ context.Context, _ string) (*domain.ActivityCounts, error) {
	return f.counts, f.countErr
}

// byType 按类型过滤已写入的记录
func (f *fakeActivityStore) byType(activityType string) []*domain.ActivityRecord {
	var matched []*domain.ActivityRecord
	for _, record := range f.records {
		if record.Type == activityType {
			matched = append(matched, record)
		}
	}
	return matched
}

type fakeDeviceResolver struct {
	owners     map[string]string
	resolveErr error
}

func (f *fakeDeviceResolver) ResolveOwner(_ context.Context, deviceID string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.owners[deviceID], nil
}

func (f *fakeDeviceResolver) Register(_ context.Context, deviceID, userID string) error {
	if f.owners == nil {
		f.owners = make(map[string]string)
	}
	f.owners[deviceID] = userID
	return nil
}

type fakeSampleCache struct {
	samples map[string]*domain.TelemetrySample
	setErr  error
	getErr  error
	sets    int
}

func (f *fakeSampleCache) SetLatest(_ context.Context, userID string, sample *domain.TelemetrySample) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.samples == nil {
		f.samples = make(map[string]*domain.TelemetrySample)
	}
	f.samples[userID] = sample
	f.sets++
	return nil
}

func (f *fakeSampleCache) GetLatest(_ context.Context, userID string) (*domain.TelemetrySample, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sample, ok := f.samples[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return sample, nil
}

type fakeContactStore struct {
	contacts []domain.EmergencyContact
	listErr  error
}

func (f *fakeContactStore) ListByUser(_ context.Context, _ string) ([]domain.EmergencyContact, error) {
	return f.contacts, f.listErr
}

type fakeDeliverer struct {
	delivered []string // 归一化后的收件号码，按投递顺序
	messages  []string
	failPhone string // 投递到该号码时返回错误
	failErr   error
}

func (f *fakeDeliverer) Deliver(_ context.Context, to, message string) (string, error) {
	if f.failPhone != "" && to == f.failPhone {
		return "", f.failErr
	}
	f.delivered = append(f.delivered, to)
	f.messages = append(f.messages, message)
	return "msg-" + to, nil
}
