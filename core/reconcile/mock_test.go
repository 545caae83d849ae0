package reconcile

import (
	"context"

	"ioc-sync/core/indicator"

	"github.com/stretchr/testify/mock"
)

// mockStore is a testify mock of the remote inventory.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListIndicators(ctx context.Context, filter, after string, limit int) (Page, error) {
	args := m.Called(ctx, filter, after, limit)
	return args.Get(0).(Page), args.Error(1)
}

func (m *mockStore) CreateIndicators(ctx context.Context, records []indicator.Record, opts MutationOptions) (BatchResponse, error) {
	args := m.Called(ctx, records, opts)
	return args.Get(0).(BatchResponse), args.Error(1)
}

func (m *mockStore) UpdateIndicators(ctx context.Context, records []indicator.Record, opts MutationOptions) (BatchResponse, error) {
	args := m.Called(ctx, records, opts)
	return args.Get(0).(BatchResponse), args.Error(1)
}

func (m *mockStore) DeleteIndicators(ctx context.Context, ids []string) (BatchResponse, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(BatchResponse), args.Error(1)
}

func desiredRecord(value string) indicator.Record {
	return indicator.Record{
		Kind:            indicator.KindDomain,
		Value:           value,
		Action:          "detect",
		Severity:        indicator.DefaultSeverity,
		Source:          indicator.ProjectSource,
		Description:     "[autormmdetect] tools=Tool; note=d",
		Tags:            indicator.ProjectTags(),
		Platforms:       indicator.DefaultPlatforms(),
		HostGroups:      []string{},
		AppliedGlobally: true,
	}
}

func remoteOf(id string, rec indicator.Record) RemoteRecord {
	return RemoteRecord{
		ID:              id,
		Kind:            rec.Kind,
		Value:           rec.Value,
		Action:          rec.Action,
		Severity:        rec.Severity,
		Source:          rec.Source,
		Description:     rec.Description,
		AppliedGlobally: rec.AppliedGlobally,
		Tags:            append([]string(nil), rec.Tags...),
		Platforms:       append([]string(nil), rec.Platforms...),
		HostGroups:      append([]string(nil), rec.HostGroups...),
	}
}
