package models

import "time"

// DeletedMessage is the most recently deleted message of a channel.
type DeletedMessage struct {
	ChannelID   string
	AuthorID    string
	AuthorName  string
	Content     string
	Timestamp   time.Time
	Attachments []string
}
