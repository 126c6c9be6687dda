package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOptions 外部服务客户端参数
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	Debug      bool
}

// NewClient 创建一个配置好超时、重试和鉴权头的 Resty 客户端
// 它是引擎访问外部服务的统一入口
func NewClient(opts ClientOptions) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetDebug(opts.Debug).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Marketplace-Engine/1.0").
		SetHeader("Content-Type", "application/json")

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.APIKey != "" {
		client.SetHeader("x-api-key", opts.APIKey)
	}

	// 只对网络错误和 5xx 重试
	if opts.RetryCount > 0 {
		client.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			})
	}

	return client
}
