package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
)

const (
	cancelledMessage    = "You've cancelled the command."
	timedOutMessage     = "Sorry, you took too long to attach an audio file. Please try again."
	uploadFailedMessage = "An error occurred while uploading your file."
)

func invalidLanguageMessage(languages []string) string {
	return "Sorry, that's not a valid language. Please choose one of the following: " + strings.Join(languages, ", ")
}

func promptMessage(window time.Duration) string {
	return fmt.Sprintf("Please send the audio file in the next %s, or press the cancel button to cancel. "+
		"Note, you can invoke the command with the file already attached.", humanizeDuration(window))
}

func startedMessage(identifier string) string {
	return fmt.Sprintf("Transcription has started. To check its status, you can use the command `/check %s`. "+
		"You'll receive a DM when it's done.", identifier)
}

func readyMessage(identifier string) string {
	return fmt.Sprintf("Your transcript with identifier `%s` is ready! Please see the attached files.", identifier)
}

func emptyMessage(identifier string) string {
	return fmt.Sprintf("Your transcript with the identifier `%s` came up empty.", identifier)
}

func failedMessage(identifier string, status elevateai.Status) string {
	return fmt.Sprintf("Your transcript with identifier `%s` failed to generate. Status: `%s` - %s",
		identifier, status, status.Explanation())
}

func fetchFailedMessage(identifier string) string {
	return fmt.Sprintf("Your transcript with identifier `%s` finished processing, but it could not be retrieved. "+
		"Please try again later.", identifier)
}

func abandonedMessage(identifier string) string {
	return fmt.Sprintf("Sorry, I lost track of your transcript with identifier `%s` because the transcription "+
		"service stopped answering status checks.", identifier)
}

func slowMessage(identifier string, elapsed time.Duration) string {
	return fmt.Sprintf("Your transcript with identifier `%s` is taking longer than expected (%s so far). "+
		"You'll still receive a DM when it's done.", identifier, humanizeDuration(elapsed))
}

// humanizeDuration renders whole minutes, or seconds below one minute.
func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Round(time.Second) / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := int(d / time.Minute)
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
