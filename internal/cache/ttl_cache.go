package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// TTLCache 는 항목별 만료 시간과 최대 크기를 가진 LRU 캐시다.
// HTTP 요청 제한 카운터처럼 프로세스 로컬 상태에만 사용한다.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   *list.List
	items   map[K]*list.Element
	now     func() time.Time
}

// NewTTLCache 는 만료 시간과 최대 크기를 갖는 TTLCache 를 생성한다.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration) *TTLCache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[K]*list.Element, maxSize),
		now:     time.Now,
	}
}

// Get 은 만료되지 않은 값을 반환한다.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Set 은 값을 저장하고 만료 시간을 갱신한다.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, true)
}

// Modify 는 현재 값(없거나 만료되면 zero, false)을 fn 으로 변환해 원자적으로 저장한다.
// 기존 항목의 만료 시간은 유지되므로 고정 윈도우 카운터로 쓸 수 있다.
func (c *TTLCache[K, V]) Modify(key K, fn func(current V, exists bool) V) (V, bool) {
	if fn == nil {
		var zero V
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var current V
	ent, exists := c.lookup(key)
	if exists {
		current = ent.value
	}
	next := fn(current, exists)
	c.store(key, next, !exists)
	return next, true
}

// Delete 는 항목을 제거한다.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}
}

// Len 은 만료 여부와 무관하게 보관 중인 항목 수를 반환한다.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *TTLCache[K, V]) lookup(key K) (*entry[K, V], bool) {
	element, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := element.Value.(*entry[K, V])
	if c.now().After(ent.expiresAt) {
		c.removeElement(element)
		return nil, false
	}
	c.order.MoveToFront(element)
	return ent, true
}

func (c *TTLCache[K, V]) store(key K, value V, refresh bool) {
	if element, ok := c.items[key]; ok {
		ent := element.Value.(*entry[K, V])
		ent.value = value
		if refresh {
			ent.expiresAt = c.now().Add(c.ttl)
		}
		c.order.MoveToFront(element)
		return
	}

	element := c.order.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
	c.items[key] = element
	for len(c.items) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.removeElement(oldest)
	}
}

func (c *TTLCache[K, V]) removeElement(element *list.Element) {
	c.order.Remove(element)
	ent := element.Value.(*entry[K, V])
	delete(c.items, ent.key)
}
