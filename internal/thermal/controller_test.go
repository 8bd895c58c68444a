package thermal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermal_guard/internal/models"
)

func TestHeaterController_Transitions(t *testing.T) {
	board := newFakeBoard()
	ctl, err := NewHeaterController(bedChannel(), board)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIdle, ctl.State().Phase)

	changed, err := ctl.SetTarget(80, t0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PhaseHeating, ctl.State().Phase)

	assert.False(t, ctl.Observe(sample(models.ChannelBed, 60, t0.Add(time.Second))))
	require.NoError(t, ctl.Actuate(t0.Add(time.Second)))
	assert.Equal(t, 1.0, board.dutyOf(0))

	assert.True(t, ctl.Observe(sample(models.ChannelBed, 78.5, t0.Add(2*time.Second))))
	assert.Equal(t, models.PhaseAtTarget, ctl.State().Phase)
	assert.Equal(t, t0.Add(2*time.Second), ctl.State().TargetReachedAt)

	// leaving the band does not leave AT_TARGET; runaway handles that
	assert.False(t, ctl.Observe(sample(models.ChannelBed, 70, t0.Add(3*time.Second))))
	assert.Equal(t, models.PhaseAtTarget, ctl.State().Phase)
	assert.Equal(t, time.Second, ctl.State().SinceTargetReached(t0.Add(3*time.Second)))

	changed, err = ctl.SetTarget(90, t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PhaseHeating, ctl.State().Phase)
	assert.True(t, ctl.State().TargetReachedAt.IsZero())

	changed, err = ctl.SetTarget(0, t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PhaseIdle, ctl.State().Phase)
	require.NoError(t, ctl.Actuate(t0.Add(5*time.Second)))
	assert.Zero(t, board.dutyOf(0))
}

func TestHeaterController_OvershootReachesTarget(t *testing.T) {
	ctl, err := NewHeaterController(bedChannel(), newFakeBoard())
	require.NoError(t, err)
	_, err = ctl.SetTarget(80, t0)
	require.NoError(t, err)

	// jumps straight past 80±2
	assert.True(t, ctl.Observe(sample(models.ChannelBed, 95, t0.Add(time.Second))))
	assert.Equal(t, models.PhaseAtTarget, ctl.State().Phase)
	assert.Equal(t, t0.Add(time.Second), ctl.State().TargetReachedAt)
}

func TestHeaterController_SameTargetIsNoop(t *testing.T) {
	ctl, err := NewHeaterController(bedChannel(), newFakeBoard())
	require.NoError(t, err)
	_, err = ctl.SetTarget(60, t0)
	require.NoError(t, err)
	ctl.Observe(sample(models.ChannelBed, 60, t0.Add(time.Second)))
	require.Equal(t, models.PhaseAtTarget, ctl.State().Phase)

	changed, err := ctl.SetTarget(60, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.PhaseAtTarget, ctl.State().Phase)
}

func TestHeaterController_TargetRange(t *testing.T) {
	ctl, err := NewHeaterController(bedChannel(), newFakeBoard())
	require.NoError(t, err)

	for _, target := range []float64{-5, 100, 150} {
		_, err := ctl.SetTarget(target, t0)
		assert.ErrorIs(t, err, ErrTargetOutOfRange, "target %.0f", target)
	}
	_, err = ctl.SetTarget(99, t0)
	assert.NoError(t, err)
}

func TestHeaterController_FaultForcesOff(t *testing.T) {
	board := newFakeBoard()
	ctl, err := NewHeaterController(bedChannel(), board)
	require.NoError(t, err)
	_, err = ctl.SetTarget(80, t0)
	require.NoError(t, err)
	ctl.Observe(sample(models.ChannelBed, 30, t0))
	require.NoError(t, ctl.Actuate(t0))
	require.Equal(t, 1.0, board.dutyOf(0))

	first, err := ctl.Fault(models.VerdictRunaway, "runaway", t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, first)
	assert.Zero(t, board.dutyOf(0))

	again, err := ctl.Fault(models.VerdictSensorFault, "again", t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, again)
	assert.Equal(t, models.VerdictRunaway, ctl.State().FaultReason)

	_, err = ctl.SetTarget(60, t0.Add(3*time.Second))
	assert.ErrorIs(t, err, ErrHeaterFaulted)

	ctl.Observe(sample(models.ChannelBed, 20, t0.Add(4*time.Second)))
	require.NoError(t, ctl.Actuate(t0.Add(4*time.Second)))
	assert.Zero(t, board.dutyOf(0))
	assert.Equal(t, models.PhaseFault, ctl.State().Phase)
}

func TestHeaterController_Acknowledge(t *testing.T) {
	ctl, err := NewHeaterController(hotendChannel(), newFakeBoard())
	require.NoError(t, err)
	_, err = ctl.SetTarget(200, t0)
	require.NoError(t, err)
	_, err = ctl.Fault(models.VerdictFailedToHeat, "slow", t0)
	require.NoError(t, err)

	require.NoError(t, ctl.Acknowledge(t0.Add(time.Second)))
	st := ctl.State()
	assert.Equal(t, models.PhaseIdle, st.Phase)
	assert.False(t, st.Fault)
	assert.Empty(t, st.FaultReason)
	assert.Zero(t, st.TargetTempC)

	_, err = ctl.SetTarget(200, t0.Add(2*time.Second))
	assert.NoError(t, err)
}

func TestControlAlgorithms(t *testing.T) {
	bb, err := NewControlAlgorithm(bedChannel().Control)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bb.Update(t0, 70, 80))
	assert.Equal(t, 1.0, bb.Update(t0, 81, 80))
	assert.Equal(t, 0.0, bb.Update(t0, 82, 80))
	assert.Equal(t, 0.0, bb.Update(t0, 79, 80))
	assert.Equal(t, 1.0, bb.Update(t0, 78, 80))

	pid, err := NewControlAlgorithm(hotendChannel().Control)
	require.NoError(t, err)
	cold := pid.Update(t0, 20, 200)
	assert.Equal(t, 1.0, cold)
	hot := pid.Update(t0.Add(time.Second), 230, 200)
	assert.Equal(t, 0.0, hot)

	_, err = NewControlAlgorithm(models.ControlSettings{Kind: models.ControlPID})
	assert.Error(t, err)
}
