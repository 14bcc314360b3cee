package bot

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Gateway feeds Discord messages through a Handler and posts the replies.
type Gateway struct {
	handler *Handler
	sess    *discordgo.Session
	out     io.Writer
}

// NewGateway creates a Gateway over an unopened session.
func NewGateway(h *Handler, sess *discordgo.Session, out io.Writer) (*Gateway, error) {
	if h == nil {
		return nil, fmt.Errorf("bot: handler is required")
	}
	if sess == nil {
		return nil, fmt.Errorf("bot: discord session is required")
	}
	if out == nil {
		out = io.Discard
	}
	return &Gateway{handler: h, sess: sess, out: out}, nil
}

// Start registers the message handler and opens the gateway connection.
func (g *Gateway) Start() error {
	g.sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	g.sess.AddHandler(g.onMessage)
	if err := g.sess.Open(); err != nil {
		return fmt.Errorf("bot: open discord gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (g *Gateway) Stop() error {
	return g.sess.Close()
}

func (g *Gateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ch, err := g.channel(s, m.ChannelID)
	if err != nil {
		log.Printf("bot: resolve channel %s: %v", m.ChannelID, err)
		return
	}

	guildName := ""
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		guildName = guild.Name
	}

	reply := g.handler.Execute(context.Background(), Request{
		GuildID:     m.GuildID,
		GuildName:   guildName,
		ChannelID:   m.ChannelID,
		ChannelName: ch.Name,
		SectionID:   ch.ParentID,
		Author:      m.Author.Username,
		JumpURL:     fmt.Sprintf("https://discord.com/channels/%s/%s/%s", m.GuildID, m.ChannelID, m.ID),
		Text:        m.Content,
	})
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("bot: send reply in %s: %v", m.ChannelID, err)
	}
}

// channel resolves channel metadata from the session state, falling back to
// the REST API for channels the state has not seen yet.
func (g *Gateway) channel(s *discordgo.Session, channelID string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return s.Channel(channelID)
}
