package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type DataType string

const (
	DataTypePortfolio           DataType = "portfolio"
	DataTypeAccount             DataType = "account"
	DataTypeOrders              DataType = "orders"
	DataTypeRecommendationBatch DataType = "ai-recommendation-batch"
)

// TTL policy per data type. Unknown data types get a short default rather
// than living forever or erroring.
const (
	TTLPortfolio           = 2 * time.Minute
	TTLAccount             = 5 * time.Minute
	TTLOrders              = time.Minute
	TTLRecommendationBatch = 24 * time.Hour
	TTLDefault             = time.Minute
)

func (d DataType) TTL() time.Duration {
	switch d {
	case DataTypePortfolio:
		return TTLPortfolio
	case DataTypeAccount:
		return TTLAccount
	case DataTypeOrders:
		return TTLOrders
	case DataTypeRecommendationBatch:
		return TTLRecommendationBatch
	}
	return TTLDefault
}

const DefaultMaxEntries = 1000

// PersistentStore is the optional cross-process cache hook. The default
// NoopStore keeps the cache memory-only.
type PersistentStore interface {
	GetFromStore(key string) (any, bool, error)
	PutInStore(key string, data any, ttl time.Duration) error
}

type NoopStore struct{}

func (NoopStore) GetFromStore(key string) (any, bool, error)               { return nil, false, nil }
func (NoopStore) PutInStore(key string, data any, ttl time.Duration) error { return nil }

type entry struct {
	data      any
	storedAt  time.Time
	ttl       time.Duration
	userID    string
	accountID string
	dataType  DataType
	seq       uint64
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

type CacheStats struct {
	TotalEntries int    `json:"totalEntries"`
	MemoryUsage  int    `json:"memoryUsage"`
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
}

// Store is the process-wide TTL cache for brokerage and analysis data.
// It is constructed once at startup and injected by reference everywhere,
// so invalidation is globally effective within the process. Entries are
// replaced wholesale, never patched.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	seq        uint64
	hits       uint64
	misses     uint64

	persistent PersistentStore
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewStore(maxEntries int, persistent PersistentStore, log *zap.SugaredLogger) *Store {
	if persistent == nil {
		persistent = NoopStore{}
	}
	return &Store{
		entries:    map[string]*entry{},
		maxEntries: maxEntries,
		persistent: persistent,
		log:        log,
		now:        time.Now,
	}
}

func NewDefaultStore(log *zap.SugaredLogger) *Store {
	return NewStore(DefaultMaxEntries, NoopStore{}, log)
}

// Key builds the cache identity for one (user, account, data type, params)
// tuple. Params are serialized with sorted keys so the same logical request
// always produces the same key.
func Key(userID, accountID string, dataType DataType, params map[string]string) string {
	return fmt.Sprintf("%s:%s:%s:%s", userID, accountID, dataType, hashParams(params))
}

func hashParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// Get returns the cached value for the key, or nil/false on miss. Expired
// entries count as misses and are removed on the spot.
func (s *Store) Get(userID, accountID string, dataType DataType, params map[string]string) (any, bool) {
	key := Key(userID, accountID, dataType, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && e.expired(s.now()) {
		delete(s.entries, key)
		ok = false
	}
	if !ok {
		s.misses++
		s.log.Debugw("cache miss", "key", key)

		if data, found, err := s.persistent.GetFromStore(key); err == nil && found {
			return data, true
		}
		return nil, false
	}

	s.hits++
	s.log.Debugw("cache hit", "key", key)
	return e.data, true
}

// Set stores data under the key, overwriting any previous entry. Nil data
// is stored as-is. Set never fails outward: a full cache evicts the
// oldest-inserted entries until under capacity, and persistent-store errors
// only log.
func (s *Store) Set(userID, accountID string, dataType DataType, data any, params map[string]string) {
	key := Key(userID, accountID, dataType, params)

	s.mu.Lock()
	now := s.now()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLocked(now)
	}

	s.seq++
	s.entries[key] = &entry{
		data:      data,
		storedAt:  now,
		ttl:       dataType.TTL(),
		userID:    userID,
		accountID: accountID,
		dataType:  dataType,
		seq:       s.seq,
	}
	s.mu.Unlock()

	if err := s.persistent.PutInStore(key, data, dataType.TTL()); err != nil {
		s.log.Warnw("failed to write through to persistent store", "key", key, "error", err)
	}
}

// evictLocked frees room for one insertion: expired entries go first, then
// the oldest-inserted live entries. Caller must hold s.mu.
func (s *Store) evictLocked(now time.Time) {
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}

	for len(s.entries) >= s.maxEntries {
		var oldestKey string
		var oldestSeq uint64
		for key, e := range s.entries {
			if oldestKey == "" || e.seq < oldestSeq {
				oldestKey = key
				oldestSeq = e.seq
			}
		}
		s.log.Debugw("evicting oldest cache entry", "key", oldestKey)
		delete(s.entries, oldestKey)
	}
}

// Delete removes exactly one key.
func (s *Store) Delete(userID, accountID string, dataType DataType, params map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key(userID, accountID, dataType, params))
}

// InvalidateUser removes every entry belonging to the user.
func (s *Store) InvalidateUser(userID string) {
	s.invalidate(func(e *entry) bool {
		return e.userID == userID
	})
}

// InvalidateAccount removes the user's entries for one account, any data type.
func (s *Store) InvalidateAccount(userID, accountID string) {
	s.invalidate(func(e *entry) bool {
		return e.userID == userID && e.accountID == accountID
	})
}

// InvalidateDataType removes the user's entries of one data type across all
// accounts.
func (s *Store) InvalidateDataType(userID string, dataType DataType) {
	s.invalidate(func(e *entry) bool {
		return e.userID == userID && e.dataType == dataType
	})
}

func (s *Store) invalidate(match func(*entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if match(e) {
			delete(s.entries, key)
		}
	}
}

func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]*entry{}
}

// Stats reports entry count and an approximate byte footprint. MemoryUsage
// sums serialized entry sizes and is observability-only; values that fail
// to serialize contribute nothing.
func (s *Store) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory := 0
	for _, e := range s.entries {
		if bytes, err := json.Marshal(e.data); err == nil {
			memory += len(bytes)
		}
	}

	return CacheStats{
		TotalEntries: len(s.entries),
		MemoryUsage:  memory,
		Hits:         s.hits,
		Misses:       s.misses,
	}
}
