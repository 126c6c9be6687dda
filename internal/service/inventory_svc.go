package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/pkg/utils"
)

// AutoHideReason 自动下架原因
const AutoHideReason = "out_of_stock"

// InventoryService 库存预测
type InventoryService struct {
	productRepo   repository.ProductRepository
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	listingRepo   repository.ListingRepository
	releaser      ReservationReleaser
	penalties     RankingPenaltyHandler
	gate          *NotificationGate

	chunkSize int
	now       Clock
	logger    zerolog.Logger
}

// NewInventoryService 创建库存预测服务
func NewInventoryService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	listingRepo repository.ListingRepository,
	releaser ReservationReleaser,
	penalties RankingPenaltyHandler,
	gate *NotificationGate,
	chunkSize int,
	logger zerolog.Logger,
) *InventoryService {
	return &InventoryService{
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		listingRepo:   listingRepo,
		releaser:      releaser,
		penalties:     penalties,
		gate:          gate,
		chunkSize:     chunkSize,
		now:           SystemClock,
		logger:        logger.With().Str("task", "InventoryService").Logger(),
	}
}

// WithClock 替换时钟
func (s *InventoryService) WithClock(clock Clock) *InventoryService {
	s.now = clock
	return s
}

// Calculate 计算库存预测并执行低库存提醒、自动下架和排名惩罚
func (s *InventoryService) Calculate(ctx context.Context, req *dto.CalculateInventoryRequest) (*dto.CalculateInventoryResponse, error) {
	now := s.now()
	resp := &dto.CalculateInventoryResponse{}

	// 0. 先释放过期预占，再读库存
	if s.releaser != nil {
		released, err := s.releaser.ReleaseExpired(ctx, now)
		if err != nil {
			s.logger.Warn().Err(err).Msg("释放过期预占失败，继续计算")
		} else if released > 0 {
			s.logger.Info().Int64("released", released).Msg("已释放过期预占")
		}
	}

	filter := repository.ProductFilter{PublishedOnly: true}
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

	var hideIDs []string

	for i, chunk := range utils.Chunk(products, s.chunkSize) {
		signals, err := s.loadSales(ctx, chunk)
		if err != nil {
			s.logger.Error().Err(err).Int("chunk", i).Int("size", len(chunk)).Msg("读取批次销量失败，跳过")
			continue
		}

		for _, p := range chunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			f := ComputeInventory(signals[p.ID])
			if err := s.saveMetric(ctx, p, signals[p.ID], f); err != nil {
				s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("写入库存预测失败，跳过")
				continue
			}
			resp.Calculated++

			if f.NeedsLowStockAlert() {
				s.alertLowStock(ctx, p, f)
			}
			if p.StockQuantity <= 0 {
				hideIDs = append(hideIDs, p.ID)
			}
			if f.NeedsRankingPenalty() && s.penalties != nil {
				applied, err := s.penalties.HandlePenaltyRequested(ctx, RankingPenaltyRequested{
					ProductID:   p.ID,
					Points:      PenaltyPoints,
					RiskPenalty: PenaltyRiskScore,
					Reason:      "critical_stock_high_demand",
				})
				if err != nil {
					s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("排名惩罚失败")
				} else if applied {
					resp.Penalties++
				}
			}
		}
	}

	// 循环结束后一次性下架缺货商品（只改展示状态，不动商品）
	if len(hideIDs) > 0 {
		hidden, err := s.listingRepo.HideByProductIDs(ctx, hideIDs, AutoHideReason, now)
		if err != nil {
			s.logger.Error().Err(err).Int("candidates", len(hideIDs)).Msg("自动下架失败")
		} else {
			resp.AutoHidden = int(hidden)
		}
	}

	s.logger.Info().
		Int("products", len(products)).
		Int("calculated", resp.Calculated).
		Int("auto_hidden", resp.AutoHidden).
		Int("penalties", resp.Penalties).
		Msg("库存预测完成")
	return resp, nil
}

// loadSales 并发读取一批商品三个窗口的销量
func (s *InventoryService) loadSales(ctx context.Context, products []model.Product) (map[string]InventorySignals, error) {
	now := s.now()
	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}

	var s7, s30, prev map[string]int64
	statuses := model.SoldOrderStatuses()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s7, err = s.orderRepo.SumUnitsByProduct(gctx, productIDs, statuses, repository.Trailing(now, 7))
		return err
	})
	g.Go(func() (err error) {
		s30, err = s.orderRepo.SumUnitsByProduct(gctx, productIDs, statuses, repository.Trailing(now, 30))
		return err
	})
	g.Go(func() (err error) {
		prev, err = s.orderRepo.SumUnitsByProduct(gctx, productIDs, statuses, repository.Between(now, 60, 30))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]InventorySignals, len(products))
	for _, p := range products {
		out[p.ID] = InventorySignals{
			Stock:        p.StockQuantity,
			Sales7d:      s7[p.ID],
			Sales30d:     s30[p.ID],
			SalesPrev30d: prev[p.ID],
		}
	}
	return out, nil
}

func (s *InventoryService) saveMetric(ctx context.Context, p model.Product, sig InventorySignals, f InventoryForecast) error {
	now := s.now()
	metric := &model.InventoryMetric{
		ProductID:         p.ID,
		CountryID:         "",
		Sales7d:           int(sig.Sales7d),
		Sales30d:          int(sig.Sales30d),
		AvgDailySales:     f.AvgDailySales,
		GrowthRate:        f.GrowthRate,
		Forecast30d:       f.Forecast30d,
		DaysUntilStockout: f.DaysUntilStockout,
		RecommendedStock:  f.RecommendedStock,
		CurrentStock:      p.StockQuantity,
		StockStatus:       f.StockStatus,
		IsHighDemand:      f.IsHighDemand,
		LastCalculatedAt:  now,
	}
	metric.CreatedAt = now
	metric.UpdatedAt = now
	return s.inventoryRepo.Upsert(ctx, metric)
}

func (s *InventoryService) alertLowStock(ctx context.Context, p model.Product, f InventoryForecast) {
	reorder := f.RecommendedStock - p.StockQuantity
	if reorder < 0 {
		reorder = 0
	}

	_, err := s.gate.Notify(ctx, NotificationCandidate{
		Type:      model.NotificationLowStock,
		StoreID:   p.StoreID,
		SubjectID: p.ID,
		Title:     "库存不足提醒",
		Body: fmt.Sprintf("商品「%s」当前库存 %d，预计 %.1f 天后售罄，建议补货 %d 件",
			p.Name, p.StockQuantity, f.DaysUntilStockout, reorder),
		Metadata: map[string]interface{}{
			"product_id":          p.ID,
			"current_stock":       p.StockQuantity,
			"recommended_stock":   f.RecommendedStock,
			"reorder_quantity":    reorder,
			"days_until_stockout": f.DaysUntilStockout,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("低库存提醒发送失败")
	}
}
