package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/pkg/utils"
)

// financingWorkers 每批内并发处理的店铺数
const financingWorkers = 8

// ErrInvalidRepayment 还款金额非法
var ErrInvalidRepayment = errors.New("repayment amount must be positive")

// FinancingService 卖家融资资格评估与邀约生命周期
type FinancingService struct {
	storeRepo     repository.StoreRepository
	orderRepo     repository.OrderRepository
	riskRepo      repository.RiskRepository
	financingRepo repository.FinancingRepository
	gate          *NotificationGate

	chunkSize int
	now       Clock
	logger    zerolog.Logger
}

// NewFinancingService 创建融资服务
func NewFinancingService(
	storeRepo repository.StoreRepository,
	orderRepo repository.OrderRepository,
	riskRepo repository.RiskRepository,
	financingRepo repository.FinancingRepository,
	gate *NotificationGate,
	chunkSize int,
	logger zerolog.Logger,
) *FinancingService {
	return &FinancingService{
		storeRepo:     storeRepo,
		orderRepo:     orderRepo,
		riskRepo:      riskRepo,
		financingRepo: financingRepo,
		gate:          gate,
		chunkSize:     chunkSize,
		now:           SystemClock,
		logger:        logger.With().Str("task", "FinancingService").Logger(),
	}
}

// WithClock 替换时钟
func (s *FinancingService) WithClock(clock Clock) *FinancingService {
	s.now = clock
	return s
}

// ==================== 资格评估 ====================

// Calculate 评估融资资格、自动发放邀约并维护还款周期
func (s *FinancingService) Calculate(ctx context.Context, req *dto.CalculateFinancingRequest) (*dto.CalculateFinancingResponse, error) {
	filter := repository.StoreFilter{Status: model.StoreStatusActive, ExcludeBanned: true}
	if req != nil && req.StoreID != "" {
		filter = repository.StoreFilter{IDs: []string{req.StoreID}}
	}

	stores, err := s.storeRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("获取店铺列表失败: %w", err)
	}
	if len(stores) == 0 {
		s.logger.Info().Msg("无需评估的店铺")
		return &dto.CalculateFinancingResponse{}, nil
	}

	var calculated, offers int64

	for _, chunk := range utils.Chunk(stores, s.chunkSize) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(financingWorkers)

		for i := range chunk {
			store := chunk[i]
			g.Go(func() error {
				scored, offered := s.processStore(gctx, store)
				if scored {
					atomic.AddInt64(&calculated, 1)
				}
				if offered {
					atomic.AddInt64(&offers, 1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	resp := &dto.CalculateFinancingResponse{
		Calculated:      int(calculated),
		OffersGenerated: int(offers),
	}
	s.logger.Info().
		Int("stores", len(stores)).
		Int("calculated", resp.Calculated).
		Int("offers_generated", resp.OffersGenerated).
		Msg("融资评估完成")
	return resp, nil
}

// processStore 单店铺评估，错误只记日志
func (s *FinancingService) processStore(ctx context.Context, store model.Store) (scored, offered bool) {
	log := s.logger.With().Str("store_id", store.ID).Logger()

	signals, err := s.loadSignals(ctx, store.ID)
	if err != nil {
		log.Warn().Err(err).Msg("读取店铺信号失败，跳过")
		return false, false
	}

	a := ComputeFinancing(signals)
	if err := s.saveScore(ctx, store.ID, signals, a); err != nil {
		log.Warn().Err(err).Msg("写入融资评分失败，跳过")
		return false, false
	}

	if a.QualifiesForOffer() {
		offered, err = s.generateOffer(ctx, store, a)
		if err != nil {
			log.Warn().Err(err).Msg("生成融资邀约失败")
		}
	}

	if err := s.maintainOffers(ctx, store.ID); err != nil {
		log.Warn().Err(err).Msg("维护还款周期失败")
	}
	return true, offered
}

func (s *FinancingService) loadSignals(ctx context.Context, storeID string) (FinancingSignals, error) {
	var sig FinancingSignals
	window := repository.Trailing(s.now(), FinancingWindowDays)
	completed := model.CompletedOrderStatuses()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sig.Sales90d, err = s.orderRepo.SumTotalByStore(gctx, storeID, completed, window)
		return err
	})
	g.Go(func() (err error) {
		sig.Orders90d, err = s.orderRepo.CountByStore(gctx, storeID, nil, window)
		return err
	})
	g.Go(func() (err error) {
		sig.ReturnedOrders, err = s.orderRepo.CountReturnedOrders(gctx, storeID, window)
		return err
	})
	g.Go(func() (err error) {
		sig.CompletedOrders, err = s.orderRepo.CountByStore(gctx, storeID, completed, repository.TimeWindow{})
		return err
	})
	g.Go(func() error {
		sig.RiskScore = model.DefaultRiskScore
		risk, err := s.riskRepo.GetSellerRisk(gctx, storeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sig.RiskScore = risk.RiskScore
		return nil
	})

	err := g.Wait()
	return sig, err
}

func (s *FinancingService) saveScore(ctx context.Context, storeID string, sig FinancingSignals, a FinancingAssessment) error {
	now := s.now()
	return s.financingRepo.UpsertScore(ctx, &model.FinancingScore{
		StoreID:           storeID,
		Sales90d:          roundTo(sig.Sales90d, 2),
		ReturnRate:        a.ReturnRate,
		RiskScore:         sig.RiskScore,
		ReputationScore:   a.ReputationScore,
		CompletedOrders:   sig.CompletedOrders,
		EligibilityScore:  a.EligibilityScore,
		TrustMultiplier:   a.TrustMultiplier,
		MaxEligibleAmount: a.MaxEligibleAmount,
		IsEligible:        a.IsEligible,
		IsFrozen:          a.IsFrozen,
		FrozenReason:      a.FrozenReason,
		LastCalculatedAt:  now,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

// ==================== 邀约生成 ====================

func (s *FinancingService) generateOffer(ctx context.Context, store model.Store, a FinancingAssessment) (bool, error) {
	open, err := s.financingRepo.HasOpenOffer(ctx, store.ID)
	if err != nil {
		return false, fmt.Errorf("查询未结束邀约失败: %w", err)
	}
	if open {
		return false, nil
	}

	now := s.now()
	amount, total := OfferTerms(a.MaxEligibleAmount)
	offer := &model.FinancingOffer{
		StoreID:             store.ID,
		OfferedAmount:       amount,
		RepaymentPercentage: RepaymentPercentage,
		TotalRepayable:      total,
		RemainingBalance:    total,
		OfferedAt:           now,
	}
	if err := offer.Apply(model.OfferedState{OfferedAt: now}); err != nil {
		return false, err
	}
	offer.CreatedAt = now
	offer.UpdatedAt = now

	if err := s.financingRepo.CreateOffer(ctx, offer); err != nil {
		return false, fmt.Errorf("创建邀约失败: %w", err)
	}

	if _, err := s.gate.Notify(ctx, NotificationCandidate{
		Type:      model.NotificationFinancingOffer,
		StoreID:   store.ID,
		SubjectID: offer.ID,
		Title:     "您获得了一笔融资额度",
		Body: fmt.Sprintf("店铺「%s」可获得 %.0f 的预支额度，按销售额 %d%% 自动还款，总应还 %.0f",
			store.Name, amount, RepaymentPercentage, total),
		Metadata: map[string]interface{}{
			"offer_id":             offer.ID,
			"offered_amount":       amount,
			"total_repayable":      total,
			"repayment_percentage": RepaymentPercentage,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Str("store_id", store.ID).Msg("邀约通知发送失败")
	}

	s.logger.Info().
		Str("store_id", store.ID).
		Str("offer_id", offer.ID).
		Float64("amount", amount).
		Msg("已生成融资邀约")
	return true, nil
}

// ==================== 还款周期 ====================

// maintainOffers 逐个结算已到期的还款周期
func (s *FinancingService) maintainOffers(ctx context.Context, storeID string) error {
	offers, err := s.financingRepo.ListOffers(ctx, repository.OfferFilter{
		StoreID:  storeID,
		Statuses: []model.OfferStatus{model.OfferStatusActive},
	})
	if err != nil {
		return fmt.Errorf("查询还款中邀约失败: %w", err)
	}

	for i := range offers {
		if err := s.evaluateCycles(ctx, &offers[i]); err != nil {
			s.logger.Warn().Err(err).Str("offer_id", offers[i].ID).Msg("结算还款周期失败")
		}
	}
	return nil
}

// evaluateCycles 每个完整周期只结算一次，周期以放款时间为起点
func (s *FinancingService) evaluateCycles(ctx context.Context, offer *model.FinancingOffer) error {
	active, err := offer.Active()
	if err != nil {
		return err
	}

	now := s.now()
	completed := active.CompletedCycles(now)
	if active.CyclesEvaluated >= completed {
		return nil
	}

	var next model.OfferState = active
	for active.CyclesEvaluated < completed {
		start, end := active.NextCycleWindow()
		_, paidCount, err := s.financingRepo.SumRepayments(ctx, offer.ID, repository.TimeWindow{From: start, To: end})
		if err != nil {
			return fmt.Errorf("查询还款记录失败: %w", err)
		}

		next = active.CloseCycle(paidCount > 0, now)
		st, ok := next.(model.ActiveState)
		if !ok {
			break
		}
		active = st
	}

	if err := offer.Apply(next); err != nil {
		return err
	}
	offer.UpdatedAt = now
	applied, err := s.financingRepo.SaveOffer(ctx, offer)
	if err != nil {
		return fmt.Errorf("保存邀约失败: %w", err)
	}
	if !applied {
		// 读取之后已被放款/还款流程修改，留给下一轮结算
		s.logger.Info().Str("offer_id", offer.ID).Msg("邀约已被并发修改，跳过本次结算")
		return nil
	}

	if offer.Status == model.OfferStatusDefaulted {
		s.logger.Warn().
			Str("store_id", offer.StoreID).
			Str("offer_id", offer.ID).
			Int("missed_cycles", offer.MissedCycles).
			Msg("融资邀约违约")

		if _, err := s.gate.Notify(ctx, NotificationCandidate{
			Type:      model.NotificationFinancingDefault,
			StoreID:   offer.StoreID,
			SubjectID: offer.ID,
			Title:     "融资还款违约",
			Body: fmt.Sprintf("连续 %d 个还款周期未还款，剩余应还 %.2f，已转入风险处理",
				offer.MissedCycles, offer.RemainingBalance),
			Metadata: map[string]interface{}{
				"offer_id":          offer.ID,
				"missed_cycles":     offer.MissedCycles,
				"remaining_balance": offer.RemainingBalance,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Str("offer_id", offer.ID).Msg("违约通知发送失败")
		}
	}
	return nil
}

// ==================== 外部触发 ====================

// ActivateOffer 放款：offered → active，由平台放款流程调用
func (s *FinancingService) ActivateOffer(ctx context.Context, offerID string) (*model.FinancingOffer, error) {
	offer, err := s.financingRepo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("查询邀约失败: %w", err)
	}

	now := s.now()
	if err := offer.Activate(now); err != nil {
		return nil, err
	}
	offer.UpdatedAt = now
	applied, err := s.financingRepo.SaveOffer(ctx, offer)
	if err != nil {
		return nil, fmt.Errorf("保存邀约失败: %w", err)
	}
	if !applied {
		return nil, model.ErrOfferConflict
	}
	return offer, nil
}

// RecordRepayment 记录一笔还款，余额归零即转为 repaid
func (s *FinancingService) RecordRepayment(ctx context.Context, offerID string, amount float64) (*model.FinancingOffer, error) {
	if amount <= 0 {
		return nil, ErrInvalidRepayment
	}

	offer, err := s.financingRepo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("查询邀约失败: %w", err)
	}
	active, err := offer.Active()
	if err != nil {
		return nil, err
	}

	now := s.now()
	offer.RemainingBalance = roundTo(offer.RemainingBalance-amount, 2)
	if offer.RemainingBalance <= 0 {
		if err := offer.Apply(active.Settle(now)); err != nil {
			return nil, err
		}
	}
	offer.UpdatedAt = now

	applied, err := s.financingRepo.SaveRepayment(ctx, offer, &model.FinancingRepayment{
		OfferID: offer.ID,
		StoreID: offer.StoreID,
		Amount:  amount,
		PaidAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("写入还款记录失败: %w", err)
	}
	if !applied {
		return nil, model.ErrOfferConflict
	}
	return offer, nil
}
