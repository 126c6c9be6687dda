package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== TriggerLimiter 手动触发限流器 ====================

// TriggerLimiter 按任务维度限制手动触发频率
// 防止调用方在一次全量计算未结束时反复触发
type TriggerLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewTriggerLimiter 创建限流器
func NewTriggerLimiter() *TriggerLimiter {
	return &TriggerLimiter{now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时记录本次时间
func (r *TriggerLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if !entry.lastTime.IsZero() {
		if elapsed := now.Sub(entry.lastTime); elapsed < interval {
			return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *TriggerLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// TriggerKey 任务级限流 Key
func TriggerKey(job string) string {
	return fmt.Sprintf("trigger:%s", job)
}

// ==================== Gin 中间件 ====================

// TriggerCooldown 手动触发冷却中间件，按路由参数 :name 的任务名限流
// interval 为 0 时不限流；触发未被受理（非 2xx）时不占用冷却
func TriggerCooldown(limiter *TriggerLimiter, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		job := c.Param("name")
		key := TriggerKey(job)
		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retrySeconds(result.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       formatRetryMessage(result.RetryAfter),
				"retry_after": retrySeconds(result.RetryAfter),
				"job":         job,
			})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusMultipleChoices {
			limiter.Reset(key)
		}
	}
}

// ==================== 辅助函数 ====================

func retrySeconds(d time.Duration) int {
	seconds := int(d.Seconds())
	if d > time.Duration(seconds)*time.Second {
		seconds++
	}
	return seconds
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := retrySeconds(d)

	if seconds < 60 {
		return fmt.Sprintf("计算冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("计算冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("计算冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
