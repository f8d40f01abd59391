package utm

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// StorageKey is the session store key holding the serialized bundle.
const StorageKey = "lead_utm_data"

// SessionStore is session-scoped key/value storage owned by the hosting UI.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore is an in-process SessionStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Capture records marketing attribution once per session and hands it to
// every later submission.
type Capture struct {
	mu    sync.Mutex
	store SessionStore
	mode  Mode
	now   func() time.Time
}

// NewCapture creates a capture over store using the given extraction mode.
func NewCapture(store SessionStore, mode Mode) *Capture {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Capture{store: store, mode: mode, now: utils.Now}
}

// Mode returns the extraction mode used by CaptureFromURL.
func (c *Capture) Mode() Mode {
	return c.mode
}

// Get returns the stored bundle, or an empty one when nothing usable is stored.
func (c *Capture) Get() model.UTMParams {
	raw, ok := c.store.Get(StorageKey)
	if !ok || raw == "" {
		return model.UTMParams{}
	}
	var p model.UTMParams
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		logger.Log.Debug("Discarding unreadable UTM bundle", zap.Error(err))
		return model.UTMParams{}
	}
	return p
}

// Persist merges params over the stored bundle. first_visit and referrer are
// written only when not already set.
func (c *Capture) Persist(params model.UTMParams) model.UTMParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked(params)
}

func (c *Capture) persistLocked(params model.UTMParams) model.UTMParams {
	merged := c.Get().Merge(params)
	if merged.FirstVisit == "" {
		merged.FirstVisit = utils.FormatISO8601Millis(c.now())
	}

	b, err := json.Marshal(merged)
	if err != nil {
		logger.Log.Warn("Failed to encode UTM bundle", zap.Error(err))
		return merged
	}
	c.store.Set(StorageKey, string(b))
	return merged
}

// CaptureFromURL extracts attribution from rawURL and persists it. A URL
// without attribution leaves the stored bundle untouched.
func (c *Capture) CaptureFromURL(rawURL, referrer string) model.UTMParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := ExtractFromURL(rawURL, c.mode)
	if params.IsEmpty() {
		return c.Get()
	}
	params.Referrer = referrer
	return c.persistLocked(params)
}

// AppendToURL decorates rawURL with the stored utm_* values so attribution
// survives a hop to another site. rawURL is returned unchanged when nothing is
// stored or it does not parse.
func (c *Capture) AppendToURL(rawURL string) string {
	p := c.Get()
	if p.IsEmpty() {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("utm_source", p.Source)
	set("utm_medium", p.Medium)
	set("utm_campaign", p.Campaign)
	set("utm_content", p.Content)
	set("utm_term", p.Term)
	u.RawQuery = q.Encode()
	return u.String()
}
