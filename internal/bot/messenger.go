package bot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
)

// DirectMessenger delivers private messages through a user's DM channel
type DirectMessenger struct {
	api discordAPI
}

// NewDirectMessenger creates a messenger over a Discord session
func NewDirectMessenger(session *discordgo.Session) *DirectMessenger {
	return &DirectMessenger{api: session}
}

func (m *DirectMessenger) SendDirect(ctx context.Context, userID string, msg domain.DirectMessage) error {
	channel, err := m.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	send := &discordgo.MessageSend{Content: msg.Content}
	for _, f := range msg.Files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	if _, err := m.api.ChannelMessageSendComplex(channel.ID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}
