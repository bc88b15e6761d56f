package store

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

type entryKind int

const (
	kindCounter entryKind = iota
	kindString
	kindList
	kindSet
)

type memEntry struct {
	Kind      entryKind       `json:"kind"`
	Counter   int64           `json:"counter,omitempty"`
	Value     []byte          `json:"value,omitempty"`
	List      []int64         `json:"list,omitempty"`
	Set       map[string]bool `json:"set,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// MemoryStore 는 단일 인스턴스 배포용 CounterStore 구현이다.
// 모든 키가 하나의 뮤텍스로 보호되며 만료 키는 접근 시점과 주기적 sweep 에서 제거된다.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

var _ CounterStore = (*MemoryStore)(nil)

// NewMemoryStore 는 빈 메모리 저장소를 생성한다.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		now:     time.Now,
	}
}

func computeExpiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// liveLocked 는 만료되지 않은 엔트리를 반환한다. 만료된 엔트리는 제거한다.
func (m *MemoryStore) liveLocked(key string, now time.Time) (*memEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if entry.expired(now) {
		delete(m.entries, key)
		return nil, false
	}
	return entry, true
}

func (m *MemoryStore) IncrBy(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, now)
	if !ok {
		entry = &memEntry{Kind: kindCounter}
		m.entries[key] = entry
	}
	if entry.Kind != kindCounter {
		return 0, ErrWrongType
	}
	entry.Counter += delta
	if ttl > 0 {
		entry.ExpiresAt = computeExpiry(now, ttl)
	}
	return entry.Counter, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, m.now())
	if !ok {
		return 0, false, nil
	}
	switch entry.Kind {
	case kindCounter:
		return entry.Counter, true, nil
	case kindString:
		n, err := strconv.ParseInt(string(entry.Value), 10, 64)
		if err != nil {
			return 0, false, ErrWrongType
		}
		return n, true, nil
	default:
		return 0, false, ErrWrongType
	}
}

func (m *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.liveLocked(key, now); ok {
		return false, nil
	}
	m.entries[key] = &memEntry{Kind: kindString, Value: []byte(value), ExpiresAt: computeExpiry(now, ttl)}
	return true, nil
}

func (m *MemoryStore) SetBlob(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	copied := append([]byte(nil), value...)
	m.mu.Lock()
	m.entries[key] = &memEntry{Kind: kindString, Value: copied, ExpiresAt: computeExpiry(now, ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetBlob(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, m.now())
	if !ok {
		return nil, false, nil
	}
	if entry.Kind != kindString {
		return nil, false, ErrWrongType
	}
	return append([]byte(nil), entry.Value...), true, nil
}

func (m *MemoryStore) PushTrim(_ context.Context, key string, value int64, keep int, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, now)
	if !ok {
		entry = &memEntry{Kind: kindList}
		m.entries[key] = entry
	}
	if entry.Kind != kindList {
		return ErrWrongType
	}
	entry.List = append(entry.List, value)
	if keep > 0 && len(entry.List) > keep {
		entry.List = append([]int64(nil), entry.List[len(entry.List)-keep:]...)
	}
	if ttl > 0 {
		entry.ExpiresAt = computeExpiry(now, ttl)
	}
	return nil
}

func (m *MemoryStore) Range(_ context.Context, key string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, m.now())
	if !ok {
		return nil, nil
	}
	if entry.Kind != kindList {
		return nil, ErrWrongType
	}
	return append([]int64(nil), entry.List...), nil
}

func (m *MemoryStore) SetAdd(_ context.Context, key, member string, ttl time.Duration) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key, now)
	if !ok {
		entry = &memEntry{Kind: kindSet, Set: make(map[string]bool)}
		m.entries[key] = entry
	}
	if entry.Kind != kindSet {
		return 0, ErrWrongType
	}
	entry.Set[member] = true
	if ttl > 0 {
		entry.ExpiresAt = computeExpiry(now, ttl)
	}
	return int64(len(entry.Set)), nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.liveLocked(key, m.now())
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

// Keys: glob 패턴(path.Match 규칙)에 맞는 키를 정렬해 반환합니다.
func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key, entry := range m.entries {
		if entry.expired(now) {
			continue
		}
		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if matched {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() {}

// Sweep 은 만료된 키를 모두 제거하고 제거한 개수를 반환한다.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// RunSweeper 는 ctx 가 끝날 때까지 interval 마다 Sweep 을 실행한다.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
