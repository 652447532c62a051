package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	commandTranscribe = "transcribe"
	commandCheck      = "check"

	optionLanguage   = "language"
	optionFile       = "file"
	optionIdentifier = "identifier"

	// cancelPrefix starts the custom id of the attachment prompt's cancel
	// button; the collection session id follows it.
	cancelPrefix = "transcribe-cancel:"
)

var languageLabels = map[string]string{
	"en-us":  "English (US)",
	"en":     "English",
	"es-419": "Spanish (Latin America)",
	"pt-br":  "Portuguese (Brazil)",
}

func applicationCommands(languages []string) []*discordgo.ApplicationCommand {
	guildOnly := false

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(languages))
	for _, lang := range languages {
		name := lang
		if label, ok := languageLabels[lang]; ok {
			name = label + " (" + lang + ")"
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: lang})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:         commandTranscribe,
			Description:  "Transcribes an audio file. Attach it now or send it after the prompt.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionLanguage,
					Description: "The language to transcribe in. Defaults to " + defaultOf(languages) + ".",
					Choices:     choices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        optionFile,
					Description: "The audio file to transcribe.",
				},
			},
		},
		{
			Name:         commandCheck,
			Description:  "Get the status of your transcription.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionIdentifier,
					Description: "The identifier you received when the transcription started.",
					Required:    true,
				},
			},
		},
	}
}

func defaultOf(languages []string) string {
	if len(languages) == 0 {
		return "en-us"
	}
	return languages[0]
}

func cancelCustomID(sessionID string) string {
	return cancelPrefix + sessionID
}

func sessionFromCustomID(customID string) (string, bool) {
	id, ok := strings.CutPrefix(customID, cancelPrefix)
	return id, ok && id != ""
}
