package models

import "time"

// Hunt is a bounded event within a guild. A hunt with no EndTime is active.
// Hunt names are unique per guild; hunts created through round inheritance
// start out nameless (NULL), which the unique index permits repeatedly.
type Hunt struct {
	ID               uint    `gorm:"primaryKey;autoIncrement"`
	GuildID          string  `gorm:"size:32;index;uniqueIndex:uq_hunt_guild_name"`
	Name             *string `gorm:"size:128;uniqueIndex:uq_hunt_guild_name"`
	URL              string  `gorm:"type:text"`
	URLSep           string  `gorm:"size:8;default:_"` // separator in puzzle URLs, e.g. - for /puzzle/foo-bar
	RoundURL         string  `gorm:"type:text"`        // if set, a different base URL for round pages
	DriveFolderID    string  `gorm:"size:128"`
	NexusSheetID     string  `gorm:"size:128"`
	DriveResourcesID string  `gorm:"size:128"` // overrides Guild.DriveResourcesID when set
	StartTime        *time.Time
	EndTime          *time.Time

	Rounds []Round `gorm:"foreignKey:HuntID"`
}

// Active reports whether the hunt is still running.
func (h *Hunt) Active() bool {
	return h.EndTime == nil
}

// DisplayName returns the hunt name, or a placeholder for nameless hunts.
func (h *Hunt) DisplayName() string {
	if h.Name == nil || *h.Name == "" {
		return "(unnamed hunt)"
	}
	return *h.Name
}
