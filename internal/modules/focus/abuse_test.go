package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

func TestHiddenBudgetIsExclusive(t *testing.T) {
	p := DefaultPolicy()
	s := running()

	HiddenStart(s, t0)
	p.HiddenEnd(s, t0.Add(300*time.Second))
	assert.Equal(t, int64(300), s.TotalHiddenSeconds)
	assert.Equal(t, types.SessionStatusRunning, s.Status, "exactly the budget is still allowed")

	HiddenStart(s, t0.Add(400*time.Second))
	p.HiddenEnd(s, t0.Add(401*time.Second))
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonExcessiveTabAway, s.InvalidReason)
	assert.Equal(t, 2, s.HiddenEventCount)
	assert.Nil(t, s.LastHiddenStart)
}

func TestPauseBudgetIndependentOfHidden(t *testing.T) {
	p := DefaultPolicy()
	s := running()

	HiddenStart(s, t0)
	p.HiddenEnd(s, t0.Add(250*time.Second))
	PauseStart(s, t0.Add(300*time.Second))
	p.PauseEnd(s, t0.Add(550*time.Second))

	assert.Equal(t, types.SessionStatusRunning, s.Status, "500s combined but each budget is 300s")

	PauseStart(s, t0.Add(600*time.Second))
	p.PauseEnd(s, t0.Add(660*time.Second))
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonPauseAbuse, s.InvalidReason)
	assert.Equal(t, int64(310), s.TotalPauseSeconds)
}

func TestEndWithoutStartIsNoop(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	assert.False(t, p.HiddenEnd(s, t0))
	assert.False(t, p.PauseEnd(s, t0))
	assert.Zero(t, s.HiddenEventCount)
	assert.Zero(t, s.PauseEventCount)
}

func TestRepeatedStartKeepsEarliest(t *testing.T) {
	s := running()
	assert.True(t, HiddenStart(s, t0))
	assert.False(t, HiddenStart(s, t0.Add(time.Minute)))
	assert.True(t, s.LastHiddenStart.Equal(t0))
}

func TestShortsInvalidatesEvenDuringRecovery(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
	assert.True(t, p.ApplyLifecycleEvent(s, types.EventShortsDetected, t0.Add(time.Second)))
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonShortsNotAllowed, s.InvalidReason)
	assert.False(t, s.RecoveryActive)
}

func TestLifecycleEventsOnArmedSession(t *testing.T) {
	p := DefaultPolicy()
	s := &types.FocusSession{Status: types.SessionStatusArmed, FocusLengthMinutes: 25}
	assert.False(t, p.ApplyLifecycleEvent(s, types.EventTabHiddenStart, t0))
	assert.Nil(t, s.LastHiddenStart)
	assert.True(t, p.ApplyLifecycleEvent(s, types.EventShortsDetected, t0))
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
}

func TestInformationalEventsHaveNoEffect(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	assert.False(t, p.ApplyLifecycleEvent(s, types.EventVideoDetected, t0))
	assert.False(t, p.ApplyLifecycleEvent(s, types.EventHeartbeat, t0))
	assert.Equal(t, types.SessionStatusRunning, s.Status)
}
