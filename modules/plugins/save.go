package plugins

import (
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
)

// Saver writes the current state right away.
type Saver interface {
	SaveNow(reason string) error
}

type Save struct {
	saver Saver
	sink  helpers.ActionSink
}

func NewSave(saver Saver, sink helpers.ActionSink) *Save {
	return &Save{saver: saver, sink: sink}
}

func (s *Save) Commands() []string {
	return []string{
		"save",
	}
}

func (s *Save) Permission(command string) modules.Permission {
	return modules.PermissionOwner
}

func (s *Save) Init(session *discordgo.Session) {
}

func (s *Save) Action(cmd *modules.Command) error {
	if err := s.saver.SaveNow("manual save"); err != nil {
		_, sendErr := s.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.save.failed", err.Error()))
		return sendErr
	}

	_, err := s.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.save.success"))
	return err
}
