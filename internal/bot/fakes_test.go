package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
)

type fakeAPI struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	dms       []*discordgo.MessageSend
	dmUsers   []string
	dmErr     error
}

func (f *fakeAPI) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{ID: "followup"}, nil
}

func (f *fakeAPI) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	f.dmUsers = append(f.dmUsers, recipientID)
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, data)
	return &discordgo.Message{ID: "dm", ChannelID: channelID}, nil
}

func (f *fakeAPI) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

type fakeJobs struct {
	submitted []domain.Request
}

func (f *fakeJobs) Submit(ctx context.Context, req domain.Request) {
	f.submitted = append(f.submitted, req)
}

func (f *fakeJobs) Languages() []string {
	return []string{"en-us", "en", "es-419", "pt-br"}
}

type fakeStatus struct {
	snapshots map[string]jobstatus.Snapshot
	queries   int
}

func (f *fakeStatus) Query(identifier, requestingUser string, privileged bool) (jobstatus.Snapshot, error) {
	f.queries++
	snap, ok := f.snapshots[identifier]
	if !ok {
		return jobstatus.Snapshot{}, jobstatus.ErrNotFound
	}
	if !privileged && snap.Owner != requestingUser {
		return jobstatus.Snapshot{}, jobstatus.ErrForbidden
	}
	return snap, nil
}

type fakeCanceller struct {
	calls []string
	err   error
}

func (f *fakeCanceller) Cancel(sessionID, userID, channelID string) error {
	f.calls = append(f.calls, sessionID+"/"+userID+"/"+channelID)
	return f.err
}

type fakeSink struct {
	messages []collector.Message
}

func (f *fakeSink) Publish(msg collector.Message) {
	f.messages = append(f.messages, msg)
}

type testBot struct {
	*Bot
	api       *fakeAPI
	jobs      *fakeJobs
	status    *fakeStatus
	canceller *fakeCanceller
	sink      *fakeSink
}

func newTestBot() *testBot {
	tb := &testBot{
		api:       &fakeAPI{},
		jobs:      &fakeJobs{},
		status:    &fakeStatus{snapshots: map[string]jobstatus.Snapshot{}},
		canceller: &fakeCanceller{},
		sink:      &fakeSink{},
	}
	tb.Bot = &Bot{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		api:       tb.api,
		jobs:      tb.jobs,
		status:    tb.status,
		canceller: tb.canceller,
		messages:  tb.sink,
	}
	return tb
}

func member(userID string, permissions int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: permissions}
}

func commandInteraction(name string, m *discordgo.Member, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Member:    m,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

var errBoom = errors.New("boom")
