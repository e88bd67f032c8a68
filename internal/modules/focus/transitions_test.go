package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func running() *types.FocusSession {
	start := t0
	return &types.FocusSession{
		Topic:              "calculus",
		FocusLengthMinutes: 25,
		Status:             types.SessionStatusRunning,
		StartTime:          &start,
	}
}

func valid() types.Verdict   { return DefaultPolicy().Threshold(0.8, "on topic", types.VerdictSourceJudge) }
func invalid() types.Verdict { return DefaultPolicy().Threshold(0.3, "off topic", types.VerdictSourceJudge) }

func TestArmedValidStartsRunning(t *testing.T) {
	p := DefaultPolicy()
	s := &types.FocusSession{Status: types.SessionStatusArmed, FocusLengthMinutes: 25}
	p.ApplyVerdict(s, "vid-aaaaa", valid(), t0)
	assert.Equal(t, types.SessionStatusRunning, s.Status)
	require.NotNil(t, s.StartTime)
	assert.True(t, s.StartTime.Equal(t0))
	assert.Equal(t, "vid-aaaaa", s.ActiveVideoID)
}

func TestArmedInvalidStaysArmed(t *testing.T) {
	p := DefaultPolicy()
	s := &types.FocusSession{Status: types.SessionStatusArmed, FocusLengthMinutes: 25}
	p.ApplyVerdict(s, "vid-aaaaa", invalid(), t0)
	assert.Equal(t, types.SessionStatusArmed, s.Status)
	assert.Nil(t, s.StartTime)
	assert.False(t, s.RecoveryActive)
}

func TestInvalidVerdictStartsRecovery(t *testing.T) {
	p := DefaultPolicy()
	for k := 0; k < 5; k++ {
		s := running()
		s.RecoveryCount = k
		p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
		assert.Equal(t, types.SessionStatusRunning, s.Status)
		assert.True(t, s.RecoveryActive)
		require.NotNil(t, s.RecoveryWindowEndsAt)
		assert.True(t, s.RecoveryWindowEndsAt.Equal(t0.Add(60*time.Second)))
		assert.Equal(t, k+1, s.RecoveryCount)
	}
}

func TestExhaustedRecoveryInvalidates(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	s.RecoveryCount = 5
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonTopicMismatch, s.InvalidReason)
	assert.Equal(t, 5, s.RecoveryCount)
}

func TestValidVerdictClearsRecoveryKeepsCount(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
	p.ApplyVerdict(s, "vid-ccccc", valid(), t0.Add(10*time.Second))
	assert.False(t, s.RecoveryActive)
	assert.Nil(t, s.RecoveryWindowEndsAt)
	assert.Equal(t, 1, s.RecoveryCount)
	assert.Equal(t, types.SessionStatusRunning, s.Status)
}

func TestInvalidDuringRecoveryKeepsWindow(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
	p.ApplyVerdict(s, "vid-ddddd", invalid(), t0.Add(20*time.Second))
	assert.Equal(t, 1, s.RecoveryCount)
	assert.True(t, s.RecoveryWindowEndsAt.Equal(t0.Add(60*time.Second)))
}

func TestExpireRecovery(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)

	assert.False(t, ExpireRecovery(s, t0.Add(60*time.Second)), "window end itself is still inside")
	assert.Equal(t, types.SessionStatusRunning, s.Status)

	assert.True(t, ExpireRecovery(s, t0.Add(61*time.Second)))
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonTopicMismatch, s.InvalidReason)
	assert.False(t, s.RecoveryActive)
	assert.Nil(t, s.RecoveryWindowEndsAt)

	assert.False(t, ExpireRecovery(s, t0.Add(time.Hour)), "expiry is observed once")
}

func TestReset(t *testing.T) {
	p := DefaultPolicy()
	s := running()
	p.ApplyVerdict(s, "vid-bbbbb", invalid(), t0)
	Reset(s)
	assert.Equal(t, types.SessionStatusInvalid, s.Status)
	assert.Equal(t, types.InvalidReasonManualReset, s.InvalidReason)
	assert.False(t, s.RecoveryActive)
	assert.Nil(t, s.RecoveryWindowEndsAt)
	assert.Zero(t, s.RecoveryCount)
}
