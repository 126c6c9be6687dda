package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/pkg/utils"
)

// RankingService 商品排名计算，ranking_scores 的唯一写入方
type RankingService struct {
	productRepo   repository.ProductRepository
	orderRepo     repository.OrderRepository
	analyticsRepo repository.AnalyticsRepository
	riskRepo      repository.RiskRepository
	rankingRepo   repository.RankingRepository
	gate          *NotificationGate

	weights   RankingWeights
	chunkSize int
	now       Clock
	logger    zerolog.Logger
}

// NewRankingService 创建排名服务
func NewRankingService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	analyticsRepo repository.AnalyticsRepository,
	riskRepo repository.RiskRepository,
	rankingRepo repository.RankingRepository,
	gate *NotificationGate,
	chunkSize int,
	logger zerolog.Logger,
) *RankingService {
	return &RankingService{
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		analyticsRepo: analyticsRepo,
		riskRepo:      riskRepo,
		rankingRepo:   rankingRepo,
		gate:          gate,
		weights:       DefaultRankingWeights,
		chunkSize:     chunkSize,
		now:           SystemClock,
		logger:        logger.With().Str("task", "RankingService").Logger(),
	}
}

// WithClock 替换时钟
func (s *RankingService) WithClock(clock Clock) *RankingService {
	s.now = clock
	return s
}

// rankingCandidate 单个商品的计算上下文
type rankingCandidate struct {
	product  model.Product
	signals  RankingSignals
	previous model.RankingSnapshot
}

// ==================== 排名计算 ====================

// Calculate 计算商品排名
func (s *RankingService) Calculate(ctx context.Context, req *dto.CalculateRankingsRequest) (*dto.CalculateRankingsResponse, error) {
	now := s.now()
	resp := &dto.CalculateRankingsResponse{}

	filter := repository.ProductFilter{PublishedOnly: true, InStockOnly: true}
	if req != nil && len(req.ProductIDs) > 0 {
		filter = repository.ProductFilter{IDs: req.ProductIDs}
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("获取商品列表失败: %w", err)
	}
	if len(products) == 0 {
		s.logger.Info().Msg("无需计算的商品")
		return resp, nil
	}

	// 第一阶段：按批次读取信号，销量归一化需要整批的最大值
	var (
		candidates []rankingCandidate
		maxSales   int64
	)
	window := repository.Trailing(now, RankingWindowDays)

	for i, chunk := range utils.Chunk(products, s.chunkSize) {
		batch, err := s.loadSignals(ctx, chunk, window)
		if err != nil {
			s.logger.Error().Err(err).Int("chunk", i).Int("size", len(chunk)).Msg("读取批次信号失败，跳过")
			continue
		}
		for _, c := range batch {
			if c.signals.SoldUnits > maxSales {
				maxSales = c.signals.SoldUnits
			}
		}
		candidates = append(candidates, batch...)
	}

	// 第二阶段：逐个计算并写入
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		notified, err := s.scoreOne(ctx, c, maxSales)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", c.product.ID).Msg("商品排名计算失败，跳过")
			continue
		}
		resp.Ranked++
		if notified {
			resp.Notifications++
		}
	}

	s.logger.Info().
		Int("products", len(products)).
		Int("ranked", resp.Ranked).
		Int("notifications", resp.Notifications).
		Msg("排名计算完成")
	return resp, nil
}

// loadSignals 并发读取一批商品的原始信号
func (s *RankingService) loadSignals(ctx context.Context, products []model.Product, window repository.TimeWindow) ([]rankingCandidate, error) {
	productIDs := make([]string, 0, len(products))
	storeSet := make(map[string]struct{})
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		storeSet[p.StoreID] = struct{}{}
	}
	storeIDs := make([]string, 0, len(storeSet))
	for id := range storeSet {
		storeIDs = append(storeIDs, id)
	}

	var (
		sold, returned, views, carts map[string]int64
		risks                        map[string]model.RiskScore
		snapshots                    map[string]model.RankingSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sold, err = s.orderRepo.SumUnitsByProduct(gctx, productIDs, model.SoldOrderStatuses(), window)
		return err
	})
	g.Go(func() (err error) {
		returned, err = s.orderRepo.SumUnitsByProduct(gctx, productIDs, model.ReturnedOrderStatuses(), window)
		return err
	})
	g.Go(func() (err error) {
		views, err = s.analyticsRepo.CountByProduct(gctx, productIDs, model.ProductEventPageView, window)
		return err
	})
	g.Go(func() (err error) {
		carts, err = s.analyticsRepo.CountByProduct(gctx, productIDs, model.ProductEventAddToCart, window)
		return err
	})
	g.Go(func() (err error) {
		risks, err = s.riskRepo.ListStoreRisks(gctx, storeIDs)
		return err
	})
	g.Go(func() (err error) {
		snapshots, err = s.rankingRepo.GetSnapshots(gctx, productIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]rankingCandidate, 0, len(products))
	for _, p := range products {
		sla, risk := 100-model.DefaultRiskScore, model.DefaultRiskScore
		if rs, ok := risks[p.StoreID]; ok {
			sla, risk = rs.SLAScore(), rs.Score
		}

		out = append(out, rankingCandidate{
			product: p,
			signals: RankingSignals{
				SoldUnits:     sold[p.ID],
				ReturnedUnits: returned[p.ID],
				PageViews:     views[p.ID],
				AddToCarts:    carts[p.ID],
				AvgRating:     p.AvgRating,
				SellerSLA:     sla,
				RiskScore:     risk,
			},
			previous: snapshots[p.ID],
		})
	}
	return out, nil
}

// scoreOne 计算单个商品并写入，返回是否发出了下跌通知
func (s *RankingService) scoreOne(ctx context.Context, c rankingCandidate, maxSales int64) (bool, error) {
	now := s.now()
	b := ComputeRanking(s.weights, c.signals, maxSales)

	delta := b.Score - c.previous.Score
	row := &model.RankingScore{
		ProductID:        c.product.ID,
		StoreID:          c.product.StoreID,
		Score:            b.Score,
		SalesWeight:      roundTo(b.SalesNorm, 2),
		ConversionScore:  roundTo(b.ConversionNorm, 2),
		RatingScore:      roundTo(b.RatingNorm, 2),
		SellerSLAScore:   roundTo(b.SLANorm, 2),
		ReturnRateScore:  roundTo(b.ReturnNorm, 2),
		RiskPenalty:      roundTo(b.RiskNorm, 2),
		PreviousScore:    c.previous.Score,
		IsTrending:       NextTrending(c.previous, delta),
		Version:          c.previous.Version + 1,
		LastCalculatedAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.rankingRepo.Upsert(ctx, row); err != nil {
		return false, fmt.Errorf("写入排名失败: %w", err)
	}

	if delta > RankingDropDelta {
		return false, nil
	}

	sent, err := s.gate.Notify(ctx, NotificationCandidate{
		Type:      model.NotificationRankingDrop,
		StoreID:   c.product.StoreID,
		SubjectID: c.product.ID,
		Title:     "商品排名大幅下降",
		Body:      fmt.Sprintf("商品「%s」的排名分从 %d 降至 %d", c.product.Name, c.previous.Score, b.Score),
		Metadata: map[string]interface{}{
			"product_id":     c.product.ID,
			"previous_score": c.previous.Score,
			"score":          b.Score,
			"delta":          delta,
		},
	})
	if err != nil {
		// 通知失败不影响排名结果
		s.logger.Warn().Err(err).Str("product_id", c.product.ID).Msg("下跌通知发送失败")
		return false, nil
	}
	return sent, nil
}

// ==================== 惩罚命令 ====================

// HandlePenaltyRequested 应用库存惩罚：扣分（不低于 0）并记录 risk_penalty
// 同一排名版本只扣一次；没有排名记录的商品直接忽略
func (s *RankingService) HandlePenaltyRequested(ctx context.Context, cmd RankingPenaltyRequested) (bool, error) {
	row, err := s.rankingRepo.GetByProductID(ctx, cmd.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取排名失败: %w", err)
	}
	if !row.PenaltyPending() {
		return false, nil
	}

	score := row.Score - cmd.Points
	if score < 0 {
		score = 0
	}

	applied, err := s.rankingRepo.SavePenalty(ctx, row.ProductID, row.Version, score, cmd.RiskPenalty, s.now())
	if err != nil {
		return false, fmt.Errorf("写入排名惩罚失败: %w", err)
	}
	if applied {
		s.logger.Info().
			Str("product_id", cmd.ProductID).
			Str("reason", cmd.Reason).
			Int("from", row.Score).
			Int("to", score).
			Msg("排名惩罚已生效")
	}
	return applied, nil
}
