// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is one listed instrument of the directory.
// Code is the six-digit exchange code and Name the display name users search by.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:6;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null;index"`
	Market    string    `gorm:"size:32;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
