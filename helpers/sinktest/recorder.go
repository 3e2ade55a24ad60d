// Package sinktest provides an in-memory helpers.ActionSink for tests.
package sinktest

import (
	"fmt"
	"sync"
)

// Call is one recorded sink call.
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

// Recorder records every call. Failures maps "Method" or "Method:arg" to the
// error that call should return; the more specific key wins.
type Recorder struct {
	sync.Mutex

	Calls    []Call
	Failures map[string]error

	nextMessageID int
}

func New() *Recorder {
	return &Recorder{Failures: make(map[string]error)}
}

// Fail makes every call of method return err. With arg set, only calls whose
// last argument equals arg fail.
func (r *Recorder) Fail(method, arg string, err error) {
	r.Lock()
	defer r.Unlock()
	key := method
	if arg != "" {
		key += ":" + arg
	}
	r.Failures[key] = err
}

func (r *Recorder) record(method string, args ...string) error {
	r.Lock()
	defer r.Unlock()
	r.Calls = append(r.Calls, Call{Method: method, Args: args})
	if len(args) > 0 {
		if err, ok := r.Failures[method+":"+args[len(args)-1]]; ok {
			return err
		}
	}
	return r.Failures[method]
}

// Method returns all recorded calls of method.
func (r *Recorder) Method(method string) []Call {
	r.Lock()
	defer r.Unlock()
	var calls []Call
	for _, call := range r.Calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Messages returns the content of every sent message and reply.
func (r *Recorder) Messages() []string {
	r.Lock()
	defer r.Unlock()
	var messages []string
	for _, call := range r.Calls {
		switch call.Method {
		case "SendMessage", "SendReply", "SendDirectMessage":
			messages = append(messages, call.Args[len(call.Args)-1])
		}
	}
	return messages
}

func (r *Recorder) SendMessage(channelID, content string) (string, error) {
	if err := r.record("SendMessage", channelID, content); err != nil {
		return "", err
	}
	r.Lock()
	defer r.Unlock()
	r.nextMessageID++
	return fmt.Sprintf("sent-%d", r.nextMessageID), nil
}

func (r *Recorder) SendReply(channelID, replyToMessageID, content string) error {
	return r.record("SendReply", channelID, replyToMessageID, content)
}

func (r *Recorder) SendDirectMessage(userID, content string) error {
	return r.record("SendDirectMessage", userID, content)
}

func (r *Recorder) AddReaction(channelID, messageID, emoji string) error {
	return r.record("AddReaction", channelID, messageID, emoji)
}

func (r *Recorder) DeleteMessage(channelID, messageID string) error {
	return r.record("DeleteMessage", channelID, messageID)
}

func (r *Recorder) GrantRole(guildID, userID, roleID string) error {
	return r.record("GrantRole", guildID, userID, roleID)
}

func (r *Recorder) RevokeRole(guildID, userID, roleID string) error {
	return r.record("RevokeRole", guildID, userID, roleID)
}
