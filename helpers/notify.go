package helpers

import (
	"fmt"

	"github.com/Seklfreak/Pebble/cache"
)

// Notifier reports operator-facing events (autosave results, failed
// handlers, command audit lines).
type Notifier interface {
	Notify(message string)
}

// OperatorNotifier posts to ChannelID if set, otherwise DMs UserID.
// Delivery failures are logged and dropped.
type OperatorNotifier struct {
	Sink      ActionSink
	UserID    string
	ChannelID string
}

func (n *OperatorNotifier) Notify(message string) {
	if n == nil || n.Sink == nil {
		return
	}
	text := fmt.Sprintf("```\n%s\n```", message)

	var err error
	switch {
	case n.ChannelID != "":
		_, err = n.Sink.SendMessage(n.ChannelID, text)
	case n.UserID != "":
		err = n.Sink.SendDirectMessage(n.UserID, text)
	default:
		return
	}
	if err != nil {
		cache.GetLogger().WithField("module", "notify").Warnf("failed to notify operator: %s", err.Error())
	}
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}
