package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// interactionReplier answers the invoking user with ephemeral followups to a
// deferred interaction response.
type interactionReplier struct {
	api         discordAPI
	interaction *discordgo.Interaction
}

func (r *interactionReplier) Reply(ctx context.Context, content string) error {
	_, err := r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send followup: %w", err)
	}
	return nil
}

func (r *interactionReplier) PromptAttachment(ctx context.Context, sessionID, content string) error {
	_, err := r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Cancel",
						Style:    discordgo.DangerButton,
						CustomID: cancelCustomID(sessionID),
					},
				},
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send attachment prompt: %w", err)
	}
	return nil
}
