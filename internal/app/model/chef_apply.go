package model

import "time"

type ApplyStatus string // chef application state

const (
	ApplyStatusWaiting  ApplyStatus = "waiting"  // pending review
	ApplyStatusRefused  ApplyStatus = "refused"  // refused by an admin
	ApplyStatusApproved ApplyStatus = "approved" // approved, chef role granted
)

func (s ApplyStatus) IsValid() bool {
	switch s {
	case ApplyStatusWaiting, ApplyStatusRefused, ApplyStatusApproved:
		return true
	}
	return false
}

type ChefApply struct {
	ID          uint        `gorm:"primarykey" json:"id"`                                   // application ID
	ApplicantID uint        `gorm:"not null;index" json:"applicant_id"`                     // applying user
	Content     string      `gorm:"type:text;not null" json:"content"`                      // motivation text
	Status      ApplyStatus `gorm:"size:16;not null;default:'waiting';index" json:"status"` // review state
	AdminID     *uint       `gorm:"index" json:"admin_id,omitempty"`                        // deciding admin
	CreateTime  time.Time   `gorm:"autoCreateTime" json:"create_time"`                      // submission time
	UpdateTime  time.Time   `gorm:"autoUpdateTime" json:"update_time"`                      // last decision time

	Applicant User  `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"` // applicant profile
	Admin     *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`         // admin profile
}

func (ChefApply) TableName() string {
	return "chef_applies"
}
