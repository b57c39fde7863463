package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

func sampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Records: []domain.MarketRecord{
			{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", MonthlyChange: 12.5, Source: "CoinGecko"},
		},
		FetchedAt:    time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		SourceCounts: map[string]int{"CoinGecko": 1},
	}
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(time.Minute)

	_, ok, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(context.Background(), sampleSnapshot()))

	got, ok, err := m.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BTC", got.Records[0].Symbol)
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(context.Background(), sampleSnapshot()))

	clock = clock.Add(59 * time.Second)
	_, ok, _ := m.Get(context.Background())
	assert.True(t, ok)

	clock = clock.Add(2 * time.Second)
	_, ok, _ = m.Get(context.Background())
	assert.False(t, ok, "expired entry must be a miss")
}

func TestRedis_SetGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	snap := sampleSnapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectSet(snapshotKey, data, time.Minute).SetVal("OK")
	mock.ExpectGet(snapshotKey).SetVal(string(data))

	c := NewRedis(client, time.Minute)
	require.NoError(t, c.Set(context.Background(), snap))

	got, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Records[0].Symbol, got.Records[0].Symbol)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_MissAndCorruptEntry(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectGet(snapshotKey).RedisNil()
	mock.ExpectGet(snapshotKey).SetVal("{not json")

	c := NewRedis(client, time.Minute)

	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "corrupt entry behaves as a miss")
	require.NoError(t, mock.ExpectationsWereMet())
}
