package model

import "time"

type Zipcode struct {
	ID        uint      `gorm:"primarykey" json:"id"`                    // zip code ID
	Code      string    `gorm:"size:5;uniqueIndex;not null" json:"code"` // five ASCII digits
	CreatedAt time.Time `json:"created_at"`                              // creation time
}

func (Zipcode) TableName() string {
	return "zipcodes"
}
