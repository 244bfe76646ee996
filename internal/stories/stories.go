// Package stories fetches the announcement stories feed and tracks which
// stories the user has already seen. Seen ids persist across restarts and are
// pruned against the live feed so the set cannot grow without bound.
package stories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/goocean/pkg/persistence"
)

// Story is one entry of the announcements feed.
type Story struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ImageURL    string `json:"imageUrl"`
	LinkURL     string `json:"linkUrl"`
	PublishedAt string `json:"publishedAt"`
}

type feedResponse struct {
	Stories []Story `json:"stories"`
}

// Client fetches the feed.
type Client struct {
	http *resty.Client
}

func NewClient(feedURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(feedURL).
			SetTimeout(15 * time.Second).
			SetRetryCount(2),
	}
}

// Fetch returns the current feed.
func (c *Client) Fetch(ctx context.Context) ([]Story, error) {
	var response feedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		Get("")
	if err != nil {
		return nil, errors.Wrap(err, "fetch stories")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("stories feed returned %d", resp.StatusCode())
	}
	return response.Stories, nil
}

// Tracker remembers seen story ids. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	seen  map[string]bool
	store persistence.Store
}

// NewTracker loads previously seen ids from store. A missing record starts
// the tracker empty.
func NewTracker(service persistence.Service) (*Tracker, error) {
	t := &Tracker{
		seen:  map[string]bool{},
		store: service.NewStore("stories", "feed", "seen"),
	}
	var ids []string
	if err := t.store.Load(&ids); err != nil {
		if !errors.Is(err, persistence.ErrNotExists) {
			return nil, err
		}
	}
	for _, id := range ids {
		t.seen[id] = true
	}
	return t, nil
}

func (t *Tracker) Seen(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[id]
}

// MarkSeen records the id and persists the set.
func (t *Tracker) MarkSeen(id string) error {
	t.mu.Lock()
	t.seen[id] = true
	ids := t.ids()
	t.mu.Unlock()
	return t.store.Save(ids)
}

// Prune drops seen ids that no longer appear in the live feed and persists the
// shrunk set.
func (t *Tracker) Prune(feed []Story) error {
	live := map[string]bool{}
	for _, story := range feed {
		live[story.ID] = true
	}

	t.mu.Lock()
	for id := range t.seen {
		if !live[id] {
			delete(t.seen, id)
		}
	}
	ids := t.ids()
	t.mu.Unlock()
	return t.store.Save(ids)
}

// Unseen filters the feed down to stories not yet marked.
func (t *Tracker) Unseen(feed []Story) []Story {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Story
	for _, story := range feed {
		if !t.seen[story.ID] {
			out = append(out, story)
		}
	}
	return out
}

// ids must be called with mu held.
func (t *Tracker) ids() []string {
	ids := make([]string, 0, len(t.seen))
	for id := range t.seen {
		ids = append(ids, id)
	}
	return ids
}
