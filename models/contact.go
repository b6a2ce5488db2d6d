package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// MembershipTagName marks contacts that originate from the membership platform.
const MembershipTagName = "RELATIC_MEMBER"

type Contact struct {
	ID                  int           `gorm:"primary_key" json:"id"`
	Name                string        `gorm:"size:100;not null" json:"name"`
	Email               string        `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone               string        `gorm:"size:20" json:"phone"`
	TaxId               string        `gorm:"size:30" json:"tax_id"`
	Street              string        `gorm:"size:255" json:"street"`
	City                string        `gorm:"size:100" json:"city"`
	CountryId           int           `gorm:"index" json:"country_id"`
	ReceivableAccountId int           `gorm:"index" json:"receivable_account_id"`
	Tags                []*ContactTag `gorm:"many2many:contact_tag_links" json:"tags"`
	// SyncLogId is a nullable weak reference to the attempt that first created
	// this contact; deleting the audit record must never cascade here.
	SyncLogId *int      `json:"sync_log_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ContactTag struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GetContactByEmail looks up a contact by its natural key. Emails are stored
// normalized (lowercase) but the lookup stays case-insensitive for safety.
// Returns (nil, nil) when no contact exists.
func GetContactByEmail(tx *gorm.DB, email string) (*Contact, error) {
	var contact Contact
	err := tx.Where("LOWER(email) = LOWER(?)", email).Take(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func GetOrCreateContactTag(tx *gorm.DB, name string) (*ContactTag, error) {
	var tag ContactTag
	err := tx.Where("name = ?", name).Take(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tag = ContactTag{Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// HasTag reports whether the contact carries the named tag.
func (c *Contact) HasTag(tx *gorm.DB, name string) (bool, error) {
	var count int64
	err := tx.Table("contact_tag_links").
		Joins("JOIN contact_tags ON contact_tags.id = contact_tag_links.contact_tag_id").
		Where("contact_tag_links.contact_id = ? AND contact_tags.name = ?", c.ID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
