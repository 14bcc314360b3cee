package models

// Round is one themed section of a hunt, 1:1 with a workspace category.
// HuntID is decided once, at creation; it stays nil until the round is
// attached to a hunt explicitly or by inheritance.
type Round struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	HuntID           *uint  `gorm:"index"`
	GuildID          string `gorm:"size:32;index"`
	Name             string `gorm:"size:128"`
	CategoryID       string `gorm:"size:32;uniqueIndex"`
	SolvedCategoryID string `gorm:"size:32;index"` // set once puzzles move to solved storage
	URL              string `gorm:"type:text"`     // per-round override of Hunt.URL
	URLSep           string `gorm:"size:8"`        // per-round override of Hunt.URLSep

	Hunt    *Hunt    `gorm:"foreignKey:HuntID"`
	Puzzles []Puzzle `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
}
