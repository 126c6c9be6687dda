package service

import "context"

// RankingPenaltyRequested 库存服务发出的排名惩罚命令
// 排名表只由 RankingService 写入，库存侧通过该命令表达扣分意图
type RankingPenaltyRequested struct {
	ProductID   string
	Points      int
	RiskPenalty float64
	Reason      string
}

// RankingPenaltyHandler 处理排名惩罚命令，applied 表示本次确实扣了分
type RankingPenaltyHandler interface {
	HandlePenaltyRequested(ctx context.Context, cmd RankingPenaltyRequested) (applied bool, err error)
}
