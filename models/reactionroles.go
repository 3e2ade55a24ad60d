package models

// ReactionRoleBinding maps a (message, emoji) pair to the role it grants.
// GuildID and ChannelID are informational and may be empty for bindings
// imported from older snapshots.
type ReactionRoleBinding struct {
	MessageID string
	Emoji     string
	RoleID    string
	GuildID   string
	ChannelID string
}
