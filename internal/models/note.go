package models

import "time"

// Note is a free-form annotation on a puzzle. Unlike every other entity,
// notes are physically deleted when erased.
type Note struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	PuzzleID uint   `gorm:"index"`
	Text     string `gorm:"type:text"`
	Author   string `gorm:"size:64"`
	JumpURL  string `gorm:"type:text"` // link back to the message that left the note
	AddedAt  time.Time
}
