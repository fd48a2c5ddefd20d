// Package cache は検索結果の時限キャッシュを提供する。
// クエリ文字列の完全一致（正規化なし）をキーとし、有効期限は
// lookup時にのみ判定する（遅延失効）。サイズ上限を超えた場合は
// 最も古いエントリを追い出す。
package cache

import (
	"sync"
	"time"

	"github.com/hitoshi/pricecomps/internal/model"
)

// Clock は現在時刻の取得関数。テストで差し替え可能にする。
type Clock func() time.Time

// entry はキャッシュされた1件の検索結果。
type entry struct {
	payload  model.SearchResult
	storedAt time.Time
}

// ResultCache は検索結果のキー付きTTLキャッシュ。
// 並行アクセスに対してミューテックスで保護される。
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	clock      Clock
}

// New はResultCacheを生成する。
// clockがnilの場合はtime.Nowを使用する。maxEntriesが0以下の場合は1とする。
func New(ttl time.Duration, maxEntries int, clock Clock) *ResultCache {
	if clock == nil {
		clock = time.Now
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &ResultCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Lookup はクエリに対するキャッシュエントリを返す。
// ヒット条件: クエリがバイト単位で完全一致し、かつ経過時間がTTL未満。
// 失効済みエントリはこの時点で削除される。
func (c *ResultCache) Lookup(query string) (model.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[query]
	if !ok {
		return model.SearchResult{}, false
	}

	if c.clock().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, query)
		return model.SearchResult{}, false
	}

	return e.payload, true
}

// Store は検索結果を無条件で保存する（同一クエリは常に上書き）。
// 新規キーの追加で上限を超える場合は最も古いエントリを追い出す。
func (c *ResultCache) Store(query string, payload model.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[query]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[query] = entry{
		payload:  payload,
		storedAt: c.clock(),
	}
}

// Len は現在のエントリ数を返す。テストおよびメトリクス用。
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked は保存時刻が最も古いエントリを削除する。
// 呼び出し側でロックを保持していること。
func (c *ResultCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true

	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			first = false
		}
	}

	if !first {
		delete(c.entries, oldestKey)
	}
}
