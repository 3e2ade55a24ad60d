package models

import (
	"time"
)

type Rest_Ranking struct {
	GuildID string
	Page    int
	Pages   int
	Ranks   []Rest_Ranking_Rank_Item
}

type Rest_Ranking_Rank_Item struct {
	UserID  string
	EXP     int64
	Level   int
	Ranking int
}

type Rest_User_Ranking struct {
	UserID          string
	GuildID         string
	EXP             int64
	Level           int
	Ranking         int
	ExpCurrentLevel int64
	ExpNextLevel    int64
	Progress        float64
}

type Rest_Reaction_Role struct {
	MessageID string
	ChannelID string
	Emoji     string
	RoleID    string
}

type Rest_Autoresponder struct {
	Trigger string
	Kind    string
	Reply   string   `json:",omitempty"`
	Emojis  []string `json:",omitempty"`
}

type Rest_Status struct {
	Version  string
	Uptime   time.Time
	LastSave time.Time
}
