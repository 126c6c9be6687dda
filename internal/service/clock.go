package service

import "time"

// Clock 业务时钟，所有时间统一为 UTC
type Clock func() time.Time

// SystemClock 系统时钟
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock 固定时钟，测试用
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t.UTC() }
}
