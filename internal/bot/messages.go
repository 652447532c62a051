package bot

import (
	"fmt"

	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
)

const (
	guildOnlyMessage      = "Sorry, this command can only be used in a server."
	notYourButtonMessage  = "Sorry, only the person who ran the command can use this button."
	requestClosedMessage  = "This request has already finished."
	cancellingMessage     = "Cancelling..."
	internalErrorMessage  = "Sorry, something went wrong. Please try again later."
	unknownCommandMessage = "Sorry, I don't know that command."
)

func notFoundMessage(identifier string) string {
	return fmt.Sprintf("Sorry, I couldn't find an interaction with the identifier `%s`.", identifier)
}

func notAuthorMessage(identifier string) string {
	return fmt.Sprintf("Sorry, you're not the author of the interaction with the identifier `%s`.", identifier)
}

// checkMessage uses Discord timestamp markup so each reader sees the time in
// their own zone.
func checkMessage(snap jobstatus.Snapshot) string {
	ts := snap.LastUpdate.Unix()
	return fmt.Sprintf("Interaction with identifier `%s`:\n"+
		"Status: %s\n"+
		"Last updated: <t:%d:F> (<t:%d:R>)\n\n"+
		"Please wait for a bit before using this command again.",
		snap.Identifier, snap.Explanation, ts, ts)
}
