package decision_recorders

import (
	"context"
	"testing"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id, key, endpoint string, allowed bool) ratelimit.Event {
	return ratelimit.Event{
		ID:       id,
		Key:      key,
		Endpoint: endpoint,
		Allowed:  allowed,
		Method:   "GET",
		Path:     "/api/" + endpoint,
		At:       time.Date(2024, time.June, 23, 10, 15, 30, 0, time.Local),
	}
}

func TestMemoryRecorder_Tallies(t *testing.T) {
	rec := NewMemoryRecorder(WithTrackKeys(true))

	require.NoError(t, rec.Record(context.Background(), event("a", "1.2.3.4", ratelimit.EndpointLogin, true)))
	require.NoError(t, rec.Record(context.Background(), event("b", "1.2.3.4", ratelimit.EndpointLogin, false)))
	require.NoError(t, rec.Record(context.Background(), event("c", "5.6.7.8", ratelimit.EndpointSearch, true)))

	assert.Equal(t, Counters{Allowed: 2, Denied: 1}, rec.Total())
	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, rec.ByEndpoint()[ratelimit.EndpointLogin])
	assert.Equal(t, Counters{Allowed: 1}, rec.ByEndpoint()[ratelimit.EndpointSearch])
	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, rec.ByKey()["1.2.3.4"])
}

func TestMemoryRecorder_KeysNotTrackedByDefault(t *testing.T) {
	rec := NewMemoryRecorder()

	require.NoError(t, rec.Record(context.Background(), event("a", "1.2.3.4", ratelimit.EndpointLogin, true)))

	assert.Empty(t, rec.ByKey())
}

func TestMemoryRecorder_RecentEventsRing(t *testing.T) {
	rec := NewMemoryRecorder(WithRecentCapacity(2))

	require.NoError(t, rec.Record(context.Background(), event("a", "1.2.3.4", ratelimit.EndpointLogin, true)))
	require.NoError(t, rec.Record(context.Background(), event("b", "1.2.3.4", ratelimit.EndpointLogin, true)))
	require.NoError(t, rec.Record(context.Background(), event("c", "1.2.3.4", ratelimit.EndpointLogin, false)))

	got := rec.RecentEvents()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}
