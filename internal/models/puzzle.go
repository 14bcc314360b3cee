package models

import "time"

// Puzzle status values. Status is free text for display; only these values
// carry lifecycle meaning.
const (
	StatusActive   = ""
	StatusSolved   = "solved"
	StatusUnsolved = "unsolved"
	StatusDeleting = "deleting"
	StatusDeleted  = "deleted"
)

// Priorities are the accepted puzzle priority values, in ascending order.
var Priorities = []string{"low", "medium", "high", "very high"}

// Puzzle is a single work item, 1:1 with a workspace text channel.
// RoundName and GuildName are deliberate snapshots so display stays stable
// after a round or guild rename.
type Puzzle struct {
	ID                    uint   `gorm:"primaryKey;autoIncrement"`
	RoundID               uint   `gorm:"index"`
	GuildID               string `gorm:"size:32;uniqueIndex:uq_puzzle_guild_channel"`
	ChannelID             string `gorm:"size:32;uniqueIndex:uq_puzzle_guild_channel"`
	Name                  string `gorm:"size:128"`
	RoundName             string `gorm:"size:128"`
	GuildName             string `gorm:"type:text"`
	ChannelMention        string `gorm:"size:64"`
	VoiceChannelID        string `gorm:"size:32"`
	SolvedCategoryID      string `gorm:"size:32"` // section the channel was archived into
	ArchiveChannelMention string `gorm:"size:64"`
	URL                   string `gorm:"type:text"`
	SheetID               string `gorm:"size:128"`
	FolderID              string `gorm:"size:128"`
	Status                string `gorm:"size:32"`
	Solution              string `gorm:"type:text"`
	Priority              string `gorm:"size:16"`
	PuzzleType            string `gorm:"size:64"`
	StartTime             *time.Time
	SolveTime             *time.Time
	ArchiveTime           *time.Time
	DeleteRequest         *time.Time
	DeleteTime            *time.Time

	Round *Round `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
	Notes []Note `gorm:"foreignKey:PuzzleID;constraint:OnDelete:CASCADE"`
}

// IsSolved reports whether the puzzle is solved. Status alone is not
// authoritative: both the status and the solve timestamp must agree.
func (p *Puzzle) IsSolved() bool {
	return p.Status == StatusSolved && p.SolveTime != nil
}

// ValidPriority reports whether pri is one of the accepted priority values.
func ValidPriority(pri string) bool {
	for _, p := range Priorities {
		if p == pri {
			return true
		}
	}
	return false
}
