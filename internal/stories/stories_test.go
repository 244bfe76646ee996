package stories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goocean/pkg/persistence"
)

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stories":[{"id":"s1","title":"Pool rewards"},{"id":"s2","title":"New datasets"}]}`))
	}))
	defer server.Close()

	feed, err := NewClient(server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "s1", feed[0].ID)
	assert.Equal(t, "Pool rewards", feed[0].Title)
}

func TestClientFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Fetch(context.Background())
	assert.Error(t, err)
}

func TestTrackerSeenAndPrune(t *testing.T) {
	service := persistence.NewJSONFileService(t.TempDir())

	tracker, err := NewTracker(service)
	require.NoError(t, err)

	feed := []Story{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}
	assert.Len(t, tracker.Unseen(feed), 3)

	require.NoError(t, tracker.MarkSeen("s1"))
	require.NoError(t, tracker.MarkSeen("s3"))
	assert.True(t, tracker.Seen("s1"))
	assert.False(t, tracker.Seen("s2"))

	unseen := tracker.Unseen(feed)
	require.Len(t, unseen, 1)
	assert.Equal(t, "s2", unseen[0].ID)

	// s3 dropped out of the feed; pruning forgets it
	require.NoError(t, tracker.Prune([]Story{{ID: "s1"}, {ID: "s2"}}))
	assert.False(t, tracker.Seen("s3"))
	assert.True(t, tracker.Seen("s1"))
}

func TestTrackerPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	service := persistence.NewJSONFileService(dir)

	tracker, err := NewTracker(service)
	require.NoError(t, err)
	require.NoError(t, tracker.MarkSeen("s1"))

	reloaded, err := NewTracker(persistence.NewJSONFileService(dir))
	require.NoError(t, err)
	assert.True(t, reloaded.Seen("s1"))
	assert.False(t, reloaded.Seen("s2"))
}
