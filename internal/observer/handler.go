package observer

import (
	"context"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/pkg/ctxlog"
)

const (
	StatusSettingsUpdated = "Settings updated successfully"
	StatusSoundPlayed     = "Sound played successfully"
	StatusSoundFailed     = "Error playing sound"
	StatusAudioMissing    = "Audio not initialized"
)

var _ message.Handler = (*Observer)(nil)

// Handle answers the queries the settings surface sends to the observer.
func (o *Observer) Handle(ctx context.Context, req message.Request) message.Response {
	logger := ctxlog.Action(o.opts.Logger, "observer.Handle", req.Action.String())
	logger.Debug().Msg("message received")

	switch req.Action {
	case message.ActionGetStatus:
		return message.Response{Status: o.status()}

	case message.ActionUpdateSettings:
		o.mu.Lock()
		o.settings = req.Settings
		o.mu.Unlock()

		logger.Info().Object("settings", req.Settings).Msg("settings updated")
		return message.Acked(StatusSettingsUpdated)

	case message.ActionTestSound:
		o.mu.Lock()
		ready := o.audioReady
		o.mu.Unlock()

		if !ready {
			return message.Acked(StatusAudioMissing)
		}

		pctx, cancel := context.WithTimeout(ctx, o.opts.EffectTimeout)
		defer cancel()
		if err := o.player.Play(pctx); err != nil {
			logger.Error().Err(err).Msg("error playing test sound")
			return message.AckedErr(StatusSoundFailed, err)
		}
		return message.Acked(StatusSoundPlayed)

	default:
		return message.Acked(message.StatusUnknownAction)
	}
}

func (o *Observer) status() *message.Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return &message.Status{
		IsMonitoring:  o.session != nil,
		LastOpenState: o.last.Bool(),
		Settings:      o.settings,
		CheckCount:    o.checkCount.Load(),
	}
}
