package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelEditComplex(channelID string, data *discordgo.ChannelEdit, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord implements Workspace over the Discord REST API.
type Discord struct {
	sess session
}

// DiscordOpts holds parameters for creating a Discord workspace.
type DiscordOpts struct {
	// Session is the connected discordgo session. Tests inject a mock
	// implementing the session interface instead.
	Session session
}

// NewDiscord creates a Discord workspace over an established session.
func NewDiscord(opts DiscordOpts) (*Discord, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("workspace: session is required")
	}
	return &Discord{sess: opts.Session}, nil
}

// FromSession wraps a live discordgo session.
func FromSession(s *discordgo.Session) *Discord {
	return &Discord{sess: s}
}

func (d *Discord) Sections(ctx context.Context, guildID string) ([]Section, error) {
	chans, err := d.sess.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("workspace: list channels in guild %s: %w", guildID, err)
	}
	var sections []Section
	for _, c := range chans {
		if c.Type == discordgo.ChannelTypeGuildCategory {
			sections = append(sections, Section{ID: c.ID, Name: c.Name, Position: c.Position})
		}
	}
	return sections, nil
}

func (d *Discord) SectionByID(ctx context.Context, guildID, sectionID string) (*Section, error) {
	sections, err := d.Sections(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].ID == sectionID {
			return &sections[i], nil
		}
	}
	return nil, ErrNotFound
}

func (d *Discord) FindSection(ctx context.Context, guildID, name string) (*Section, error) {
	sections, err := d.Sections(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Name == name {
			return &sections[i], nil
		}
	}
	return nil, ErrNotFound
}

func (d *Discord) CreateSection(ctx context.Context, guildID, name string, position int) (*Section, error) {
	c, err := d.sess.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildCategory,
		Position: position,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("workspace: create section %q in guild %s: %w", name, guildID, err)
	}
	return &Section{ID: c.ID, Name: c.Name, Position: c.Position}, nil
}

func (d *Discord) FindChannel(ctx context.Context, guildID, name string, typ ChannelType) (*Channel, error) {
	want := discordgo.ChannelTypeGuildText
	if typ == ChannelVoice {
		want = discordgo.ChannelTypeGuildVoice
	}
	chans, err := d.sess.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("workspace: list channels in guild %s: %w", guildID, err)
	}
	for _, c := range chans {
		if c.Type == want && c.Name == name {
			return fromDiscordChannel(c), nil
		}
	}
	return nil, ErrNotFound
}

func (d *Discord) CreateChannel(ctx context.Context, guildID, name, sectionID string, typ ChannelType) (*Channel, error) {
	dt := discordgo.ChannelTypeGuildText
	if typ == ChannelVoice {
		dt = discordgo.ChannelTypeGuildVoice
	}
	c, err := d.sess.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     dt,
		ParentID: sectionID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("workspace: create channel %q in guild %s: %w", name, guildID, err)
	}
	return fromDiscordChannel(c), nil
}

func (d *Discord) MoveChannel(ctx context.Context, guildID, channelID, sectionID string) error {
	_, err := d.sess.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		ParentID: sectionID,
	}, discordgo.WithContext(ctx))
	if channelGone(err) {
		return fmt.Errorf("workspace: move channel %s to section %s: %w", channelID, sectionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("workspace: move channel %s to section %s: %w", channelID, sectionID, err)
	}
	return nil
}

func (d *Discord) DeleteChannel(ctx context.Context, guildID, channelID string) error {
	_, err := d.sess.ChannelDelete(channelID, discordgo.WithContext(ctx))
	if channelGone(err) {
		return fmt.Errorf("workspace: delete channel %s: %w", channelID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("workspace: delete channel %s: %w", channelID, err)
	}
	return nil
}

// channelGone reports whether a REST error means the channel no longer
// exists on Discord's side, so callers see ErrNotFound instead of an
// endlessly retried failure.
func channelGone(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.Message != nil && rerr.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound
}

func (d *Discord) SendMessage(ctx context.Context, channelID, text string) error {
	if _, err := d.sess.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("workspace: send to channel %s: %w", channelID, err)
	}
	return nil
}

func fromDiscordChannel(c *discordgo.Channel) *Channel {
	typ := ChannelText
	if c.Type == discordgo.ChannelTypeGuildVoice {
		typ = ChannelVoice
	}
	return &Channel{
		ID:        c.ID,
		GuildID:   c.GuildID,
		Name:      c.Name,
		SectionID: c.ParentID,
		Type:      typ,
		Position:  c.Position,
		Mention:   c.Mention(),
	}
}
