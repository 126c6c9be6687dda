package model

import (
	"errors"
	"fmt"
	"time"
)

// OfferStatus 融资邀约状态
type OfferStatus string

const (
	OfferStatusOffered   OfferStatus = "offered"
	OfferStatusActive    OfferStatus = "active"
	OfferStatusRepaid    OfferStatus = "repaid"
	OfferStatusDefaulted OfferStatus = "defaulted"
)

// OpenOfferStatuses 视为“未结束”的状态
func OpenOfferStatuses() []OfferStatus {
	return []OfferStatus{OfferStatusOffered, OfferStatusActive}
}

const (
	// OfferCycleLength 还款考核周期
	OfferCycleLength = 30 * 24 * time.Hour
	// OfferDefaultAfterMisses 连续未还款周期数达到此值即违约
	OfferDefaultAfterMisses = 3
)

var ErrIllegalOfferTransition = errors.New("illegal financing offer transition")

// ErrOfferConflict 读取之后邀约已被其他流程修改
var ErrOfferConflict = errors.New("financing offer modified concurrently")

// ==================== 状态类型 ====================
//
// offered --Activate--> active --CloseCycle(miss x3)--> defaulted
//                              \--Settle-------------> repaid
//
// 终态（repaid/defaulted）不提供任何迁移方法。

// OfferState 邀约状态（封闭类型）
type OfferState interface {
	Status() OfferStatus
	sealed()
}

// OfferedState 已发出邀约，等待放款
type OfferedState struct {
	OfferedAt time.Time
}

// ActiveState 已放款，还款中
type ActiveState struct {
	ActivatedAt     time.Time
	MissedCycles    int
	CyclesEvaluated int
}

// RepaidState 已还清
type RepaidState struct {
	ActivatedAt time.Time
	RepaidAt    time.Time
}

// DefaultedState 已违约
type DefaultedState struct {
	ActivatedAt     time.Time
	DefaultedAt     time.Time
	MissedCycles    int
	CyclesEvaluated int
}

func (OfferedState) Status() OfferStatus   { return OfferStatusOffered }
func (ActiveState) Status() OfferStatus    { return OfferStatusActive }
func (RepaidState) Status() OfferStatus    { return OfferStatusRepaid }
func (DefaultedState) Status() OfferStatus { return OfferStatusDefaulted }

func (OfferedState) sealed()   {}
func (ActiveState) sealed()    {}
func (RepaidState) sealed()    {}
func (DefaultedState) sealed() {}

// Activate 放款（由平台放款流程触发）
func (s OfferedState) Activate(at time.Time) ActiveState {
	return ActiveState{ActivatedAt: at}
}

// CompletedCycles 截至 now 已结束的周期数
func (s ActiveState) CompletedCycles(now time.Time) int {
	if now.Before(s.ActivatedAt) {
		return 0
	}
	return int(now.Sub(s.ActivatedAt) / OfferCycleLength)
}

// NextCycleWindow 下一个待评估周期的区间 [start, end)
func (s ActiveState) NextCycleWindow() (start, end time.Time) {
	start = s.ActivatedAt.Add(time.Duration(s.CyclesEvaluated) * OfferCycleLength)
	return start, start.Add(OfferCycleLength)
}

// CloseCycle 结算一个周期
// 周期内有还款则连续未还款计数清零；第 3 次连续未还款转为违约
func (s ActiveState) CloseCycle(repaid bool, at time.Time) OfferState {
	s.CyclesEvaluated++
	if repaid {
		s.MissedCycles = 0
		return s
	}
	s.MissedCycles++
	if s.MissedCycles >= OfferDefaultAfterMisses {
		return DefaultedState{
			ActivatedAt:     s.ActivatedAt,
			DefaultedAt:     at,
			MissedCycles:    s.MissedCycles,
			CyclesEvaluated: s.CyclesEvaluated,
		}
	}
	return s
}

// Settle 还清
func (s ActiveState) Settle(at time.Time) RepaidState {
	return RepaidState{ActivatedAt: s.ActivatedAt, RepaidAt: at}
}

// ==================== 与持久化行互转 ====================

// State 从数据行还原状态
func (o *FinancingOffer) State() (OfferState, error) {
	switch o.Status {
	case OfferStatusOffered, "":
		return OfferedState{OfferedAt: o.OfferedAt}, nil
	case OfferStatusActive:
		if o.ActivatedAt == nil {
			return nil, fmt.Errorf("offer %s is active without activated_at", o.ID)
		}
		return ActiveState{
			ActivatedAt:     *o.ActivatedAt,
			MissedCycles:    o.MissedCycles,
			CyclesEvaluated: o.CyclesEvaluated,
		}, nil
	case OfferStatusRepaid:
		st := RepaidState{}
		if o.ActivatedAt != nil {
			st.ActivatedAt = *o.ActivatedAt
		}
		if o.RepaidAt != nil {
			st.RepaidAt = *o.RepaidAt
		}
		return st, nil
	case OfferStatusDefaulted:
		st := DefaultedState{MissedCycles: o.MissedCycles, CyclesEvaluated: o.CyclesEvaluated}
		if o.ActivatedAt != nil {
			st.ActivatedAt = *o.ActivatedAt
		}
		if o.DefaultedAt != nil {
			st.DefaultedAt = *o.DefaultedAt
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown offer status %q", o.Status)
	}
}

// Apply 把状态写回数据行
// 终态行不可再被改写
func (o *FinancingOffer) Apply(st OfferState) error {
	if o.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalOfferTransition, o.Status, st.Status())
	}
	switch s := st.(type) {
	case OfferedState:
		o.OfferedAt = s.OfferedAt
	case ActiveState:
		at := s.ActivatedAt
		o.ActivatedAt = &at
		o.MissedCycles = s.MissedCycles
		o.CyclesEvaluated = s.CyclesEvaluated
	case RepaidState:
		at := s.RepaidAt
		o.RepaidAt = &at
		o.RemainingBalance = 0
	case DefaultedState:
		at := s.DefaultedAt
		o.DefaultedAt = &at
		o.MissedCycles = s.MissedCycles
		o.CyclesEvaluated = s.CyclesEvaluated
	}
	o.Status = st.Status()
	return nil
}

// IsTerminal 是否终态
func (o *FinancingOffer) IsTerminal() bool {
	return o.Status == OfferStatusRepaid || o.Status == OfferStatusDefaulted
}

// Activate offered → active
func (o *FinancingOffer) Activate(at time.Time) error {
	st, err := o.State()
	if err != nil {
		return err
	}
	offered, ok := st.(OfferedState)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalOfferTransition, o.Status, OfferStatusActive)
	}
	return o.Apply(offered.Activate(at))
}

// Active 取出还款中状态，非 active 返回 ErrIllegalOfferTransition
func (o *FinancingOffer) Active() (ActiveState, error) {
	st, err := o.State()
	if err != nil {
		return ActiveState{}, err
	}
	active, ok := st.(ActiveState)
	if !ok {
		return ActiveState{}, fmt.Errorf("%w: offer %s is %s", ErrIllegalOfferTransition, o.ID, o.Status)
	}
	return active, nil
}
