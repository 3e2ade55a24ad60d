package snipe

import (
	"sync"

	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/models"
)

// Store keeps the last deleted message of every channel in memory.
type Store struct {
	sync.RWMutex

	channels map[string]models.DeletedMessage
}

func NewStore() *Store {
	return &Store{channels: make(map[string]models.DeletedMessage)}
}

// Put replaces the slot of message's channel.
func (s *Store) Put(message models.DeletedMessage) {
	if message.Attachments != nil {
		message.Attachments = append([]string(nil), message.Attachments...)
	}

	s.Lock()
	s.channels[message.ChannelID] = message
	s.Unlock()

	metrics.MessagesSniped.Add(1)
}

func (s *Store) Get(channelID string) (models.DeletedMessage, bool) {
	s.RLock()
	defer s.RUnlock()

	message, ok := s.channels[channelID]
	if ok && message.Attachments != nil {
		message.Attachments = append([]string(nil), message.Attachments...)
	}
	return message, ok
}
