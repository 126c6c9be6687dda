package utils

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的内存缓存，使用 sync.Map 保证并发安全
// 过期判断由调用方传入 now，便于与业务时钟保持一致
type TTLCache struct {
	items sync.Map
	ttl   time.Duration
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value     string
	expiresAt time.Time
}

// NewTTLCache 创建缓存
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{ttl: ttl}
}

// Set 设置缓存，从 now 开始计时
func (c *TTLCache) Set(key, value string, now time.Time) {
	c.items.Store(key, cacheItem{
		value:     value,
		expiresAt: now.Add(c.ttl),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache) Get(key string, now time.Time) (string, bool) {
	val, ok := c.items.Load(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if !now.Before(item.expiresAt) {
		c.items.Delete(key) // 懒删除
		return "", false
	}

	return item.value, true
}

// Delete 删除缓存
func (c *TTLCache) Delete(key string) {
	c.items.Delete(key)
}
