package modules

import (
	"fmt"
	"strings"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/ratelimits"
	"github.com/getsentry/raven-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Permission int

const (
	PermissionEveryone Permission = iota
	// PermissionAdmin is a guild administrator, the guild owner or the bot owner
	PermissionAdmin
	// PermissionOwner is the bot owner only
	PermissionOwner
)

func (p Permission) String() string {
	switch p {
	case PermissionAdmin:
		return "admin"
	case PermissionOwner:
		return "owner"
	}
	return "everyone"
}

// Authorizer answers permission questions about the author of a command.
type Authorizer interface {
	IsBotOwner(userID string) bool
	IsGuildAdmin(guildID, channelID, userID string) bool
}

type Handler func(cmd *Command) error

type Middleware func(next Handler) Handler

// Chain wraps handler so that the first middleware runs first.
func Chain(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Respond turns a failed command into a plain denial replying to the command.
func Respond(sink helpers.ActionSink) Middleware {
	return func(next Handler) Handler {
		return func(cmd *Command) error {
			err := next(cmd)
			if err == nil {
				return nil
			}

			var text string
			switch helpers.KindOf(err) {
			case helpers.KindInvalidArgument, helpers.KindPermissionDenied, helpers.KindNotFound:
				metrics.CommandsDenied.Add(1)
				text = "❌ " + helpers.UserMessage(err)
			default:
				cache.GetLogger().WithField("module", "modules").WithFields(logrus.Fields{
					"command": cmd.Name,
					"guild":   cmd.GuildID,
				}).Error(err.Error())
				text = helpers.GetTextF("bot.errors.generic", helpers.UserMessage(err))
			}

			if sendErr := reply(sink, cmd, text); sendErr != nil {
				cache.GetLogger().WithField("module", "modules").Warn("failed to reply: ", sendErr.Error())
			}
			return err
		}
	}
}

// reply answers the command message, or posts to its channel if there is none
// or the reply was refused.
func reply(sink helpers.ActionSink, cmd *Command, text string) error {
	if cmd.MessageID() != "" {
		err := sink.SendReply(cmd.ChannelID, cmd.MessageID(), text)
		if err == nil || helpers.IsKind(err, helpers.KindTransient) {
			return err
		}
	}
	_, err := sink.SendMessage(cmd.ChannelID, text)
	return err
}

// Recover converts panics into errors and reports them.
func Recover(notifier helpers.Notifier) Middleware {
	return func(next Handler) Handler {
		return func(cmd *Command) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("panic in command %s: %v", cmd.Name, r)
					raven.CaptureError(err, map[string]string{
						"Command":   cmd.Name,
						"GuildID":   cmd.GuildID,
						"ChannelID": cmd.ChannelID,
						"Content":   cmd.Content,
					})
					notifier.Notify(err.Error())
				}
			}()
			return next(cmd)
		}
	}
}

// RateLimit drains one key per command from the author's bucket.
func RateLimit(container *ratelimits.BucketContainer, authorizer Authorizer) Middleware {
	return func(next Handler) Handler {
		return func(cmd *Command) error {
			if authorizer.IsBotOwner(cmd.AuthorID) {
				return next(cmd)
			}
			if err := container.Drain(1, cmd.AuthorID); err != nil {
				container.Set(cmd.AuthorID, -1)
				return helpers.NewError(helpers.KindPermissionDenied, "ratelimit",
					errors.New(helpers.GetText("bot.ratelimit.hit")))
			}
			return next(cmd)
		}
	}
}

// Authorize refuses the command unless the author holds permission.
func Authorize(permission Permission, authorizer Authorizer) Middleware {
	return func(next Handler) Handler {
		return func(cmd *Command) error {
			allowed := true
			switch permission {
			case PermissionOwner:
				allowed = authorizer.IsBotOwner(cmd.AuthorID)
			case PermissionAdmin:
				allowed = authorizer.IsBotOwner(cmd.AuthorID) ||
					authorizer.IsGuildAdmin(cmd.GuildID, cmd.ChannelID, cmd.AuthorID)
			}
			if !allowed {
				return helpers.NewError(helpers.KindPermissionDenied, cmd.Name,
					errors.New(helpers.GetText("bot.errors.no-permission")))
			}
			return next(cmd)
		}
	}
}

// LogCommand writes an audit line for every authorized command and forwards
// it to the operator if notifyOperator is set.
func LogCommand(notifier helpers.Notifier, notifyOperator bool) Middleware {
	return func(next Handler) Handler {
		return func(cmd *Command) error {
			metrics.CommandsExecuted.Add(1)

			cache.GetLogger().WithField("module", "modules").WithFields(logrus.Fields{
				"command": cmd.Name,
				"user":    cmd.AuthorID,
				"guild":   cmd.GuildID,
				"channel": cmd.ChannelID,
			}).Info(cmd.Content)

			if notifyOperator {
				notifier.Notify(formatAuditLine(cmd))
			}
			return next(cmd)
		}
	}
}

func formatAuditLine(cmd *Command) string {
	author := cmd.AuthorID
	if cmd.Message != nil && cmd.Message.Author != nil {
		author = fmt.Sprintf("%s (ID: %s)", cmd.Message.Author.Username, cmd.AuthorID)
	}
	lines := []string{
		"Command: " + cmd.Name,
		"User: " + author,
		"Server: " + cmd.GuildID,
		"Channel: " + cmd.ChannelID,
		"Arguments: " + cmd.Content,
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
