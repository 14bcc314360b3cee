package workspace

import (
	"context"
	"fmt"
	"sync"
)

// Mock implements Workspace in memory for testing. It records sent messages
// and deleted channels, and lets tests inject per-channel failures.
type Mock struct {
	mu       sync.Mutex
	nextID   int
	sections map[string][]*Section // guildID -> sections in position order
	channels map[string]*Channel   // channelID -> channel
	sent     map[string][]string   // channelID -> messages
	deleted  []string

	// MoveErr and DeleteErr inject failures keyed by channel ID.
	MoveErr   map[string]error
	DeleteErr map[string]error
	// CreateSectionErr fails every CreateSection call when set.
	CreateSectionErr error
}

// NewMock creates an empty in-memory workspace.
func NewMock() *Mock {
	return &Mock{
		sections:  make(map[string][]*Section),
		channels:  make(map[string]*Channel),
		sent:      make(map[string][]string),
		MoveErr:   make(map[string]error),
		DeleteErr: make(map[string]error),
	}
}

func (m *Mock) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// AddSection seeds a section without going through CreateSection.
func (m *Mock) AddSection(guildID, name string, position int) *Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Section{ID: m.id("sec"), Name: name, Position: position}
	m.sections[guildID] = append(m.sections[guildID], s)
	return s
}

// AddChannel seeds a channel without going through CreateChannel.
func (m *Mock) AddChannel(guildID, name, sectionID string, typ ChannelType) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addChannelLocked(guildID, name, sectionID, typ)
}

func (m *Mock) addChannelLocked(guildID, name, sectionID string, typ ChannelType) *Channel {
	c := &Channel{
		ID:        m.id("chan"),
		GuildID:   guildID,
		Name:      name,
		SectionID: sectionID,
		Type:      typ,
	}
	c.Mention = "<#" + c.ID + ">"
	m.channels[c.ID] = c
	return c
}

// Messages returns the messages sent to a channel.
func (m *Mock) Messages(channelID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent[channelID]...)
}

// Deleted returns the IDs of deleted channels in deletion order.
func (m *Mock) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Channel returns the current state of a channel, or nil if deleted/unknown.
func (m *Mock) Channel(channelID string) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[channelID]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (m *Mock) Sections(ctx context.Context, guildID string) ([]Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Section, 0, len(m.sections[guildID]))
	for _, s := range m.sections[guildID] {
		out = append(out, *s)
	}
	return out, nil
}

func (m *Mock) SectionByID(ctx context.Context, guildID, sectionID string) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sections[guildID] {
		if s.ID == sectionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) FindSection(ctx context.Context, guildID, name string) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sections[guildID] {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) CreateSection(ctx context.Context, guildID, name string, position int) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateSectionErr != nil {
		return nil, m.CreateSectionErr
	}
	s := &Section{ID: m.id("sec"), Name: name, Position: position}
	m.sections[guildID] = append(m.sections[guildID], s)
	cp := *s
	return &cp, nil
}

func (m *Mock) FindChannel(ctx context.Context, guildID, name string, typ ChannelType) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.GuildID == guildID && c.Name == name && c.Type == typ {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) CreateChannel(ctx context.Context, guildID, name, sectionID string, typ ChannelType) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.addChannelLocked(guildID, name, sectionID, typ)
	cp := *c
	return &cp, nil
}

func (m *Mock) MoveChannel(ctx context.Context, guildID, channelID, sectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.MoveErr[channelID]; err != nil {
		return err
	}
	c, ok := m.channels[channelID]
	if !ok {
		return ErrNotFound
	}
	c.SectionID = sectionID
	return nil
}

func (m *Mock) DeleteChannel(ctx context.Context, guildID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.DeleteErr[channelID]; err != nil {
		return err
	}
	if _, ok := m.channels[channelID]; !ok {
		return ErrNotFound
	}
	delete(m.channels, channelID)
	m.deleted = append(m.deleted, channelID)
	return nil
}

func (m *Mock) SendMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[channelID] = append(m.sent[channelID], text)
	return nil
}
