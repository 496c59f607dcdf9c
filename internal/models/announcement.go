package models

import (
	"time"
)

// Announcement is an entry in the club's information center.
type Announcement struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title"`
	Body        string     `json:"body" gorm:"type:text"`
	Category    string     `json:"category" gorm:"index"` // "general", "course", "competition", ...
	Pinned      bool       `json:"pinned" gorm:"default:false"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
	AuthorID    string     `json:"author_id" gorm:"index"`

	Version   int64     `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Published reports whether the announcement is visible to members.
func (a *Announcement) Published() bool {
	return a.PublishedAt != nil && !a.PublishedAt.After(time.Now())
}
