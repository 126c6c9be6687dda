package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/service"
)

// OfferManager 邀约放款与还款，由 service.FinancingService 实现
type OfferManager interface {
	ActivateOffer(ctx context.Context, offerID string) (*model.FinancingOffer, error)
	RecordRepayment(ctx context.Context, offerID string, amount float64) (*model.FinancingOffer, error)
}

// OfferController 平台放款、还款回调入口
type OfferController struct {
	offers OfferManager
	logger zerolog.Logger
}

func NewOfferController(offers OfferManager, logger zerolog.Logger) *OfferController {
	return &OfferController{
		offers: offers,
		logger: logger.With().Str("component", "OfferController").Logger(),
	}
}

// Activate 放款
// @Summary 邀约放款
// @Description offered → active，还款周期从此刻开始计算
// @Tags Financing (融资)
// @Produce json
// @Param id path string true "邀约 ID"
// @Success 200 {object} model.FinancingOffer
// @Failure 404 {object} map[string]string "邀约不存在"
// @Failure 409 {object} map[string]string "状态不允许或并发修改"
// @Router /api/engine/offers/{id}/activate [post]
func (c *OfferController) Activate(ctx *gin.Context) {
	offer, err := c.offers.ActivateOffer(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.fail(ctx, "放款失败", err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}

// RecordRepayment 还款登记
// @Summary 还款登记
// @Description 记录一笔还款，余额归零后转为 repaid
// @Tags Financing (融资)
// @Accept json
// @Produce json
// @Param id path string true "邀约 ID"
// @Param request body dto.RecordRepaymentRequest true "还款金额"
// @Success 200 {object} model.FinancingOffer
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 404 {object} map[string]string "邀约不存在"
// @Failure 409 {object} map[string]string "状态不允许或并发修改"
// @Router /api/engine/offers/{id}/repayments [post]
func (c *OfferController) RecordRepayment(ctx *gin.Context) {
	var req dto.RecordRepaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	offer, err := c.offers.RecordRepayment(ctx.Request.Context(), ctx.Param("id"), req.Amount)
	if err != nil {
		c.fail(ctx, "还款登记失败", err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}

func (c *OfferController) fail(ctx *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "邀约不存在"})
	case errors.Is(err, model.ErrIllegalOfferTransition), errors.Is(err, model.ErrOfferConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRepayment):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.logger.Error().Err(err).Str("offer_id", ctx.Param("id")).Msg(msg)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
