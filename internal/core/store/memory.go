package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內文件儲存，具 TTL 與容量上限（LRU 淘汰）
type MemoryStore struct {
	mu      sync.RWMutex
	maxSize int
	ttl     time.Duration
	docs    map[string]memoryEntry
	stats   memoryStats
	now     func() time.Time
}

// memoryEntry 文件條目
type memoryEntry struct {
	data        []byte
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// memoryStats 存取統計
type memoryStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 創建行程內文件儲存；ttl <= 0 表示不過期
func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	common.LogInfo("記憶體文件儲存已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
	)
	return &MemoryStore{
		maxSize: maxSize,
		ttl:     ttl,
		docs:    make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get 讀取文件
func (m *MemoryStore) Get(ctx context.Context, id string, out interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.docs[id]
	if !exists {
		m.stats.misses++
		return ErrNotFound
	}

	now := m.now()
	if m.expired(entry, now) {
		delete(m.docs, id)
		m.stats.evictions++
		m.stats.misses++
		return ErrNotFound
	}

	entry.lastAccess = now
	entry.accessCount++
	m.docs[id] = entry
	m.stats.hits++

	if err := common.ParseJSONBytes(entry.data, out); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// Put 寫入文件，超過容量時先清理過期項目再淘汰最少使用者
func (m *MemoryStore) Put(ctx context.Context, id string, doc interface{}) error {
	data, err := common.ToJSONBytes(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.docs[id]; !exists && len(m.docs) >= m.maxSize {
		m.cleanup(now)
		if len(m.docs) >= m.maxSize {
			m.evictLRU()
		}
	}

	entry := memoryEntry{
		data:       data,
		lastAccess: now,
	}
	if m.ttl > 0 {
		entry.expiresAt = now.Add(m.ttl)
	}
	m.docs[id] = entry
	return nil
}

func (m *MemoryStore) expired(entry memoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && now.After(entry.expiresAt)
}

// cleanup 清理過期的文件
func (m *MemoryStore) cleanup(now time.Time) int {
	count := 0
	for id, entry := range m.docs {
		if m.expired(entry, now) {
			delete(m.docs, id)
			count++
			m.stats.evictions++
		}
	}
	return count
}

// evictLRU 淘汰存取次數最少、最久未使用的文件
func (m *MemoryStore) evictLRU() {
	var oldestID string
	var oldestAccess time.Time
	var lowestAccessCount int

	for id, entry := range m.docs {
		if oldestID == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestID = id
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestID != "" {
		delete(m.docs, oldestID)
		m.stats.evictions++
		common.LogDebug("文件已淘汰(LRU)", zap.String("id", oldestID))
	}
}

// Stats 取得存取統計
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"size":      len(m.docs),
		"max_size":  m.maxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
	}
}

// Ping 永遠可用
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close 清空文件
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs = make(map[string]memoryEntry)
	common.LogInfo("記憶體文件儲存已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
