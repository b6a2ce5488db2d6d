package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Country struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:2;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetCountryByCode returns (nil, nil) when the code is unknown.
func GetCountryByCode(tx *gorm.DB, code string) (*Country, error) {
	var country Country
	err := tx.Where("code = ?", code).Take(&country).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}
