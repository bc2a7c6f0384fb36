// SPDX-License-Identifier: MIT

package cascade

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo is a write-once-per-key cache. Concurrent first lookups of one key
// share a single build; failed builds are not cached.
type memo[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	group singleflight.Group
}

func (m *memo[K, V]) peek(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]

	return v, ok
}

// get returns the cached value for key, building it at most once per
// successful population. hit reports whether the value was already cached.
func (m *memo[K, V]) get(key K, build func() (V, error)) (v V, hit bool, err error) {
	if v, ok := m.peek(key); ok {
		return v, true, nil
	}

	res, err, _ := m.group.Do(fmt.Sprint(key), func() (any, error) {
		// Double-check: another flight may have finished between peek and Do.
		if v, ok := m.peek(key); ok {
			return v, nil
		}
		built, err := build()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.items == nil {
			m.items = make(map[K]V)
		}
		m.items[key] = built
		m.mu.Unlock()

		return built, nil
	})
	if err != nil {
		return v, false, err
	}
	v, ok := res.(V)
	if !ok {
		return v, false, fmt.Errorf("memo: unexpected %T for key %v", res, key)
	}

	return v, false, nil
}
