package prevalence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ioc-sync/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) CountDevices(ctx context.Context, kind, value string) (int, error) {
	args := m.Called(ctx, kind, value)
	return args.Int(0), args.Error(1)
}

func entry(tool, domain string) feed.NormalizedEntry {
	return feed.NormalizedEntry{Domain: domain, Tools: []string{tool}, Tool: tool}
}

func TestEvaluate_FlagsDomainsAndTools(t *testing.T) {
	counter := new(mockCounter)
	counter.On("CountDevices", mock.Anything, "domain", "a.anydesk.com").Return(40, nil)
	counter.On("CountDevices", mock.Anything, "domain", "b.anydesk.com").Return(2, nil)
	counter.On("CountDevices", mock.Anything, "domain", "relay.zoho.com").Return(25, nil)
	counter.On("CountDevices", mock.Anything, "domain", "x.rare.net").Return(0, nil)
	counter.On("CountDevices", mock.Anything, "domain", "a.rare.net").Return(0, nil)

	entries := []feed.NormalizedEntry{
		entry("AnyDesk", "a.anydesk.com"),
		entry("AnyDesk", "b.anydesk.com"),
		entry("zoho Assist", "relay.zoho.com"),
		entry("Rare", "x.rare.net"),
		entry("Rare", "a.rare.net"),
		entry("Rare", "*.wild.net"),
	}

	report, err := Evaluate(context.Background(), counter, entries, 25, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Evaluated)
	assert.Equal(t, 25, report.Threshold)
	assert.Equal(t, 2, report.HighPrevalenceDomains)
	assert.Equal(t, []string{"AnyDesk", "zoho Assist"}, report.HighPrevalenceTools)
	assert.Equal(t, []DomainCount{
		{Tool: "Rare", Domain: "a.rare.net", Count: 0},
		{Tool: "Rare", Domain: "x.rare.net", Count: 0},
		{Tool: "AnyDesk", Domain: "b.anydesk.com", Count: 2},
	}, report.LowPrevalenceSample)
	counter.AssertNumberOfCalls(t, "CountDevices", 5)
}

func TestEvaluate_CapsQueriesAndSample(t *testing.T) {
	counter := new(mockCounter)
	counter.On("CountDevices", mock.Anything, "domain", mock.Anything).Return(1, nil)

	var entries []feed.NormalizedEntry
	for i := 0; i < 40; i++ {
		entries = append(entries, entry("T", fmt.Sprintf("d%02d.example.com", i)))
	}

	report, err := Evaluate(context.Background(), counter, entries, 25, 30, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Evaluated)
	assert.Len(t, report.LowPrevalenceSample, 20)
	assert.Empty(t, report.HighPrevalenceTools)
	counter.AssertNumberOfCalls(t, "CountDevices", 30)
}

func TestEvaluate_QueryErrorIsFatal(t *testing.T) {
	counter := new(mockCounter)
	counter.On("CountDevices", mock.Anything, "domain", "a.example.com").Return(0, errors.New("403"))

	report, err := Evaluate(context.Background(), counter, []feed.NormalizedEntry{entry("T", "a.example.com")}, 25, 50, nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestExtractDeviceCount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", ``, 0},
		{"empty list", `[]`, 0},
		{"bare number", `[17]`, 17},
		{"device_count", `[{"id":"x","device_count":9}]`, 9},
		{"count", `[{"count":4}]`, 4},
		{"total string", `[{"total":"12"}]`, 12},
		{"devices_count", `[{"devices_count":3}]`, 3},
		{"single object", `{"device_count":5}`, 5},
		{"unparseable", `[{"device_count":"many"}]`, 0},
		{"no known key", `[{"other":1}]`, 0},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDeviceCount([]byte(tt.raw)))
		})
	}
}
