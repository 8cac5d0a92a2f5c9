// Package status owns the single status message a request edits during its
// lifetime: throttled progress updates, flood-wait handling, and final-state
// texts.
package status

import (
	"errors"
	"time"

	"terabox-relay-bot/internal/logger"

	tele "gopkg.in/telebot.v4"
)

// Editor wraps one status message. Progress edits are rate-limited to one
// per interval; terminal edits (failures, completion) bypass the throttle.
type Editor struct {
	bot      *tele.Bot
	msg      *tele.Message
	interval time.Duration
	lastEdit time.Time

	now    func() time.Time
	sleep  func(d time.Duration)
	editFn func(text string) error
}

func NewEditor(bot *tele.Bot, msg *tele.Message, interval time.Duration) *Editor {
	e := &Editor{
		bot:      bot,
		msg:      msg,
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	e.editFn = e.doEdit
	return e
}

// Update edits the status message if the throttle interval has elapsed,
// otherwise drops the text silently.
func (e *Editor) Update(text string) {
	if e.now().Sub(e.lastEdit) < e.interval {
		return
	}
	e.edit(text)
}

// Finish edits the status message unconditionally. Used for terminal states,
// which must never be throttled away.
func (e *Editor) Finish(text string) {
	e.edit(text)
}

// Delete removes the status message. Best-effort.
func (e *Editor) Delete() {
	if err := e.bot.Delete(e.msg); err != nil {
		logger.Debug.Printf("delete status message: %v", err)
	}
}

// edit performs the edit, honoring a flood-wait signal by sleeping the
// indicated duration and retrying exactly once.
func (e *Editor) edit(text string) {
	err := e.editFn(text)
	if err == nil {
		e.lastEdit = e.now()
		return
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		logger.Warn.Printf("flood wait: sleeping %ds before retrying edit", flood.RetryAfter)
		e.sleep(time.Duration(flood.RetryAfter) * time.Second)
		if err := e.editFn(text); err != nil {
			logger.Error.Printf("status edit failed after flood wait: %v", err)
		} else {
			e.lastEdit = e.now()
		}
		return
	}

	// "message is not modified" and similar are noise, not failures
	logger.Debug.Printf("status edit skipped: %v", err)
}

func (e *Editor) doEdit(text string) error {
	msg, err := e.bot.Edit(e.msg, text, tele.ModeHTML, tele.NoPreview)
	if err != nil {
		return err
	}
	e.msg = msg
	return nil
}
