package models

import "time"

// Guild holds per-server configuration. Rows are created lazily the first
// time a guild is referenced and are never deleted.
type Guild struct {
	ID                  string `gorm:"primaryKey;size:32"`
	Name                string `gorm:"type:text"`
	DiscussionChannel   string `gorm:"size:128;default:general"`
	BotChannel          string `gorm:"size:128"`
	BotEmoji            string `gorm:"size:64"`
	UseVoiceChannels    bool   `gorm:"default:true"`
	DriveParentID       string `gorm:"size:128"`
	DriveResourcesID    string `gorm:"size:128"`
	DriveStarterSheetID string `gorm:"size:128"`
	ArchiveDelay        int    `gorm:"default:300"` // seconds between solve and archive
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Hunts []Hunt `gorm:"foreignKey:GuildID"`
}
