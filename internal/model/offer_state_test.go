package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestActiveState_CompletedCycles(t *testing.T) {
	s := ActiveState{ActivatedAt: activatedAt}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"放款前", activatedAt.Add(-time.Hour), 0},
		{"第一个周期内", activatedAt.Add(29 * 24 * time.Hour), 0},
		{"恰好满一个周期", activatedAt.Add(OfferCycleLength), 1},
		{"跨越三个周期", activatedAt.Add(95 * 24 * time.Hour), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CompletedCycles(tt.now))
		})
	}
}

func TestActiveState_CloseCycle(t *testing.T) {
	var st OfferState = ActiveState{ActivatedAt: activatedAt}

	for i := 0; i < 2; i++ {
		st = st.(ActiveState).CloseCycle(false, activatedAt)
	}
	active := st.(ActiveState)
	assert.Equal(t, 2, active.MissedCycles)

	start, end := active.NextCycleWindow()
	assert.Equal(t, activatedAt.Add(2*OfferCycleLength), start)
	assert.Equal(t, activatedAt.Add(3*OfferCycleLength), end)

	// 有还款则清零
	st = active.CloseCycle(true, activatedAt)
	assert.Equal(t, 0, st.(ActiveState).MissedCycles)
	assert.Equal(t, 3, st.(ActiveState).CyclesEvaluated)

	for i := 0; i < 3; i++ {
		st = st.(ActiveState).CloseCycle(false, activatedAt)
	}
	def, ok := st.(DefaultedState)
	require.True(t, ok, "连续三次未还款应违约")
	assert.Equal(t, 3, def.MissedCycles)
	assert.Equal(t, 6, def.CyclesEvaluated)
}

func TestFinancingOffer_Transitions(t *testing.T) {
	offer := &FinancingOffer{TotalRepayable: 100, RemainingBalance: 100}
	require.NoError(t, offer.Apply(OfferedState{OfferedAt: activatedAt}))
	assert.Equal(t, OfferStatusOffered, offer.Status)

	_, err := offer.Active()
	assert.ErrorIs(t, err, ErrIllegalOfferTransition)

	require.NoError(t, offer.Activate(activatedAt))
	assert.Equal(t, OfferStatusActive, offer.Status)
	require.NotNil(t, offer.ActivatedAt)

	assert.ErrorIs(t, offer.Activate(activatedAt), ErrIllegalOfferTransition, "不能重复放款")

	active, err := offer.Active()
	require.NoError(t, err)
	require.NoError(t, offer.Apply(active.Settle(activatedAt.Add(time.Hour))))
	assert.Equal(t, OfferStatusRepaid, offer.Status)
	assert.Zero(t, offer.RemainingBalance)
	assert.True(t, offer.IsTerminal())

	// 终态不可改写
	assert.ErrorIs(t, offer.Apply(ActiveState{ActivatedAt: activatedAt}), ErrIllegalOfferTransition)
}

func TestFinancingOffer_StateRoundTrip(t *testing.T) {
	at := activatedAt
	offer := &FinancingOffer{Status: OfferStatusActive, ActivatedAt: &at, MissedCycles: 2, CyclesEvaluated: 4}

	st, err := offer.State()
	require.NoError(t, err)
	assert.Equal(t, ActiveState{ActivatedAt: at, MissedCycles: 2, CyclesEvaluated: 4}, st)

	broken := &FinancingOffer{Status: OfferStatusActive}
	_, err = broken.State()
	assert.Error(t, err)

	unknown := &FinancingOffer{Status: "paused"}
	_, err = unknown.State()
	assert.Error(t, err)
}
