// Package workspace abstracts the chat platform's channel topology: sections
// (Discord categories) that group channels, text channels for puzzle work,
// and voice channels alongside them.
package workspace

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a section or channel does not exist on the
// platform. Callers use it to fall back to creation.
var ErrNotFound = errors.New("workspace: not found")

// ChannelType distinguishes text channels from voice channels.
type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelVoice
)

// Section is a named grouping of channels (a Discord category).
type Section struct {
	ID       string
	Name     string
	Position int
}

// Channel is a single text or voice channel.
type Channel struct {
	ID        string
	GuildID   string
	Name      string
	SectionID string
	Type      ChannelType
	Position  int
	Mention   string // chat-format channel reference, e.g. <#1234>
}

// Workspace is the interface that platform-specific implementations must
// satisfy. All operations take a context for per-call deadlines; the
// reconciler talks to a remote API and must never hang a whole tick on one
// stuck call.
type Workspace interface {
	// Sections lists all sections in the guild ordered by position.
	Sections(ctx context.Context, guildID string) ([]Section, error)

	// SectionByID fetches a single section; ErrNotFound if absent.
	SectionByID(ctx context.Context, guildID, sectionID string) (*Section, error)

	// FindSection fetches a section by exact name; ErrNotFound if absent.
	FindSection(ctx context.Context, guildID, name string) (*Section, error)

	// CreateSection creates a section at the given position.
	CreateSection(ctx context.Context, guildID, name string, position int) (*Section, error)

	// FindChannel fetches a channel by exact name and type; ErrNotFound if
	// absent. Text and voice channels may share a name.
	FindChannel(ctx context.Context, guildID, name string, typ ChannelType) (*Channel, error)

	// CreateChannel creates a channel inside the given section.
	CreateChannel(ctx context.Context, guildID, name, sectionID string, typ ChannelType) (*Channel, error)

	// MoveChannel reparents a channel into another section.
	MoveChannel(ctx context.Context, guildID, channelID, sectionID string) error

	// DeleteChannel removes a channel from the platform.
	DeleteChannel(ctx context.Context, guildID, channelID string) error

	// SendMessage posts a text message to a channel.
	SendMessage(ctx context.Context, channelID, text string) error
}
