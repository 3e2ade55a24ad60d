package helpers

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// ErrorKind classifies failures so callers can decide between replying,
// reporting to the operator, or silently dropping the event.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidArgument
	KindPermissionDenied
	KindNotFound
	KindStorage
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindPermissionDenied:
		return "permission denied"
	case KindNotFound:
		return "not found"
	case KindStorage:
		return "storage error"
	case KindTransient:
		return "transient external error"
	}
	return "unknown error"
}

// Error is a classified failure of operation Op.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// Cause keeps pkg/errors.Cause working through an *Error.
func (e *Error) Cause() error { return e.Err }

func NewError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func InvalidArgument(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: errors.Errorf(format, args...)}
}

// InvalidArgumentText is InvalidArgument for texts that must not be
// interpreted as a format string.
func InvalidArgumentText(op, text string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: errors.New(text)}
}

func StorageError(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ClassifyDiscordError wraps errors returned by the discord REST api into
// an *Error. Nil stays nil, already classified errors are left alone.
func ClassifyDiscordError(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}

	if errD, ok := err.(*discordgo.RESTError); ok {
		if errD.Message != nil {
			switch errD.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return NewError(KindPermissionDenied, op, err)
			case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownRole, discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownEmoji:
				return NewError(KindNotFound, op, err)
			}
		}
		if errD.Response != nil {
			switch {
			case errD.Response.StatusCode == http.StatusForbidden:
				return NewError(KindPermissionDenied, op, err)
			case errD.Response.StatusCode == http.StatusNotFound:
				return NewError(KindNotFound, op, err)
			case errD.Response.StatusCode == http.StatusBadRequest:
				return NewError(KindInvalidArgument, op, err)
			case errD.Response.StatusCode >= 500:
				return NewError(KindTransient, op, err)
			}
		}
		return NewError(KindUnknown, op, err)
	}

	// anything that never reached discord is a network hiccup
	return NewError(KindTransient, op, err)
}

// UserMessage is the part of err that can be shown in a channel.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
