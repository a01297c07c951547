package model

import (
	"time"

	"gorm.io/gorm"
)

type Meal struct {
	ID          uint           `gorm:"primarykey" json:"id"`                            // meal ID
	ChefID      uint           `gorm:"not null;index" json:"chef_id"`                   // owning chef
	Name        string         `gorm:"size:64;not null" json:"name"`                    // display name
	Description string         `gorm:"type:text" json:"description"`                    // description
	IsSelected  bool           `gorm:"not null;default:false;index" json:"is_selected"` // featured by an admin
	CreatedAt   time.Time      `json:"created_at"`                                      // creation time
	UpdatedAt   time.Time      `json:"updated_at"`                                      // update time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                  // soft delete keeps order references valid

	Chef     User          `gorm:"foreignKey:ChefID" json:"chef,omitempty"`     // chef profile
	Zipcodes []MealZipcode `gorm:"foreignKey:MealID" json:"zipcodes,omitempty"` // served zip codes with windows
	Photos   []MealPhoto   `gorm:"foreignKey:MealID" json:"photos,omitempty"`   // uploaded photos
}

func (Meal) TableName() string {
	return "meals"
}

// MealZipcode is the availability of a meal in one zip code.
// Rows are written only through the meal zipcode repository.
type MealZipcode struct {
	MealID     uint      `gorm:"primaryKey;autoIncrement:false" json:"meal_id"`    // meal ID
	ZipcodeID  uint      `gorm:"primaryKey;autoIncrement:false" json:"zipcode_id"` // zip code ID
	BeginDate  time.Time `gorm:"not null" json:"begin_date"`                       // first available day
	EndDate    time.Time `gorm:"not null" json:"end_date"`                         // last available day
	CreateDate time.Time `gorm:"autoCreateTime" json:"create_date"`                // association time

	Zipcode Zipcode `gorm:"foreignKey:ZipcodeID" json:"zipcode"` // zip code row
}

func (MealZipcode) TableName() string {
	return "meal_zipcodes"
}

// Covers reports whether day falls inside the availability window.
func (mz MealZipcode) Covers(day time.Time) bool {
	d := TruncateDay(day)
	return !d.Before(TruncateDay(mz.BeginDate)) && !d.After(TruncateDay(mz.EndDate))
}

type MealPhoto struct {
	ID          uint      `gorm:"primarykey" json:"id"`                // photo ID
	MealID      uint      `gorm:"not null;index" json:"meal_id"`       // meal ID
	ObjectKey   string    `gorm:"size:512;not null" json:"object_key"` // storage key
	URL         string    `gorm:"size:1024;not null" json:"url"`       // public URL
	ContentType string    `gorm:"size:64" json:"content_type"`         // MIME type
	CreatedAt   time.Time `json:"created_at"`                          // creation time
}

func (MealPhoto) TableName() string {
	return "meal_photos"
}

// TruncateDay drops the clock part of t in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
