package model

import (
	"time"

	"gorm.io/gorm"
)

type RoleName string // role identifier stored in roles.name

const (
	RoleCustomer RoleName = "customer" // default role granted at registration
	RoleChef     RoleName = "chef"     // granted when a chef application is approved
	RoleAdmin    RoleName = "admin"    // moderation and curation
)

type Role struct {
	ID          uint      `gorm:"primarykey" json:"id"`                     // role ID
	Name        RoleName  `gorm:"size:64;uniqueIndex;not null" json:"name"` // role name
	Description string    `gorm:"size:255" json:"description,omitempty"`    // human readable description
	CreatedAt   time.Time `json:"created_at"`                               // creation time
}

func (Role) TableName() string {
	return "roles"
}

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                         // user ID
	Nickname     string         `gorm:"size:64;uniqueIndex;not null" json:"nickname"` // public display name
	Email        string         `gorm:"size:128;uniqueIndex;not null" json:"email"`   // login email
	PasswordHash string         `gorm:"not null" json:"-"`                            // bcrypt hash
	Avatar       string         `gorm:"size:512" json:"avatar,omitempty"`             // avatar URL
	AboutMe      string         `gorm:"type:text" json:"about_me,omitempty"`          // free text profile
	LastSeen     *time.Time     `json:"last_seen,omitempty"`                          // last successful login
	CreatedAt    time.Time      `json:"created_at"`                                   // creation time
	UpdatedAt    time.Time      `json:"updated_at"`                                   // update time
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                               // soft delete

	Roles []Role `gorm:"many2many:roles_users" json:"roles,omitempty"` // granted roles
}

func (User) TableName() string {
	return "users"
}

// HasRole reports whether the loaded roles include name.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the loaded role names as plain strings.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r.Name))
	}
	return names
}
