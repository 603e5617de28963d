package orchestrator

import (
	"fmt"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/provider"
	"github.com/yami-inc/ai-death-game/internal/uistate"
)

// SkipIntervention closes the intervention window without an
// instruction and moves on to generation.
func (d *Driver) SkipIntervention() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ui.Kind != uistate.InterventionWindow {
		return fmt.Errorf(constants.ErrInterventionClosed)
	}
	d.startLapBatchLocked(d.state.TurnIndex)
	return nil
}

// SubmitIntervention injects a free-text gamemaster instruction, once
// per round. Submitting mid-discussion discards all pending generated
// content: the epoch is bumped so in-flight results are dropped unread,
// and the streaming placeholder is removed rather than filled in.
func (d *Driver) SubmitIntervention(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf(constants.ErrEmptyIntervention)
	}
	if d.ui.Kind != uistate.InterventionWindow && d.ui.Kind != uistate.DiscussionTapWait {
		return fmt.Errorf(constants.ErrInterventionClosed)
	}
	if st.InterventionUsed {
		return fmt.Errorf(constants.ErrInterventionUsed)
	}
	st.InterventionUsed = true
	st.Stats.InterventionCount++

	if st.Processing || len(st.BatchQueue) > 0 {
		st.Epoch++
		st.Processing = false
		st.BatchQueue = nil
		if e := st.LogByID(d.placeholderID); e != nil && e.IsStreaming {
			st.RemoveLog(e.ID)
		}
		d.placeholderID = ""
	}

	d.moderating = true
	d.ui = uistate.At(uistate.DiscussionThinking, st.TurnIndex)
	apiKey := d.apiKey

	go func() {
		m := d.gen.ModerateIntervention(d.ctx, apiKey, text)
		d.onModerationReady(text, m)
	}()
	return nil
}

// onModerationReady applies the moderation verdict: the narrator line
// is shown as a master line, and safe instructions become the directive
// consumed by the next lap's generation.
func (d *Driver) onModerationReady(text string, m provider.Moderation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.moderating {
		return
	}
	d.moderating = false
	st := d.state

	if m.ResponseMode == provider.ResponseModeBroadcast && m.Category != provider.ModerationUnsafe {
		st.GMInstruction = text
	}
	st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: m.MasterResponse})
	d.ui = uistate.Of(uistate.GameStartTyping)
}
