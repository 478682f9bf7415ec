package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email            string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username         string    `gorm:"size:25;not null;uniqueIndex" json:"username"`
	Bio              string    `gorm:"size:250" json:"bio"`
	Role             Role      `gorm:"type:user_role;not null;default:user" json:"role"`
	Superuser        bool      `gorm:"not null;default:false" json:"-"`
	ConfirmationCode *int      `json:"-"`
}

type Genre struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Slug string    `gorm:"size:50;not null;uniqueIndex" json:"slug"`
}

type Book struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Author      string    `gorm:"not null" json:"author"`
	Country     string    `gorm:"size:25" json:"country"`
	Description string    `json:"description"`
	// Rating is computed from review scores; never written from client input.
	Rating  *float64   `json:"rating"`
	GenreID *uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Genre   *Genre     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"genre,omitempty"`
}

type Review struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Text     string    `gorm:"not null" json:"text"`
	Score    int       `gorm:"not null;default:0" json:"score"`
	PubDate  time.Time `gorm:"not null;index" json:"pub_date"`
	BookID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_review_book_author" json:"book_id"`
	Book     *Book     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_review_book_author" json:"author_id"`
	Author   *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Text     string    `gorm:"not null" json:"text"`
	PubDate  time.Time `gorm:"not null;index" json:"pub_date"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author   *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ReviewID uuid.UUID `gorm:"type:uuid;not null;index" json:"review_id"`
	Review   *Review   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
