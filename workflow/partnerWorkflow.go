package workflow

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/config"
	"github.com/shidalgo0925/relatic-integration/models"
	"github.com/shidalgo0925/relatic-integration/utils"
)

// MemberInput is the normalized member block of a sale payload.
type MemberInput struct {
	Email       string
	Name        string
	Phone       string
	Vat         string
	Street      string
	City        string
	CountryCode string
}

// CreateOrUpdateContact upserts the member by email. Existing contacts are
// updated field-by-field with non-empty inputs only, so a sparse payload never
// blanks data captured earlier. New contacts get the default receivable
// account and the membership tag; the tag is re-asserted on update in case it
// was removed by hand.
func CreateOrUpdateContact(tx *gorm.DB, logger *logrus.Logger, member MemberInput, defaultCountryCode string, syncLogId *int) (*models.Contact, error) {
	email := utils.NormalizeEmail(member.Email)
	if email == "" || !utils.IsValidEmail(email) {
		return nil, NewBusinessError(ErrCodeValidation, fmt.Sprintf("invalid member email %q", member.Email))
	}
	name := member.Name
	if name == "" {
		return nil, NewBusinessError(ErrCodeValidation, "member name is required")
	}

	countryCode := member.CountryCode
	if countryCode == "" {
		countryCode = defaultCountryCode
	}
	phone := utils.NormalizePhone(member.Phone, countryCode)
	vat := utils.NormalizeVat(member.Vat)

	var countryId int
	country, err := models.GetCountryByCode(tx, countryCode)
	if err != nil {
		return nil, err
	}
	if country != nil {
		countryId = country.ID
	} else if countryCode != defaultCountryCode {
		// Unknown code on the payload: fall back to the configured default.
		country, err = models.GetCountryByCode(tx, defaultCountryCode)
		if err != nil {
			return nil, err
		}
		if country != nil {
			countryId = country.ID
		}
	}

	contact, err := models.GetContactByEmail(tx, email)
	if err != nil {
		return nil, err
	}

	if contact == nil {
		receivable, err := models.GetDefaultReceivableAccount(tx)
		if err != nil {
			return nil, err
		}
		if receivable == nil {
			return nil, NewBusinessError(ErrCodeReceivableAccountMissing, "no active receivable account is configured")
		}
		contact = &models.Contact{
			Name:                name,
			Email:               email,
			Phone:               phone,
			TaxId:               vat,
			Street:              member.Street,
			City:                member.City,
			CountryId:           countryId,
			ReceivableAccountId: receivable.ID,
			SyncLogId:           syncLogId,
		}
		if err := tx.Create(contact).Error; err != nil {
			config.LogError(logger, "workflow", "CreateOrUpdateContact", "create contact", email, err)
			return nil, err
		}
	} else {
		updates := map[string]interface{}{"name": name}
		if phone != "" {
			updates["phone"] = phone
		}
		if vat != "" {
			updates["tax_id"] = vat
		}
		if member.Street != "" {
			updates["street"] = member.Street
		}
		if member.City != "" {
			updates["city"] = member.City
		}
		if countryId != 0 {
			updates["country_id"] = countryId
		}
		if err := tx.Model(contact).Updates(updates).Error; err != nil {
			config.LogError(logger, "workflow", "CreateOrUpdateContact", "update contact", contact.ID, err)
			return nil, err
		}
	}

	if err := ensureMembershipTag(tx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func ensureMembershipTag(tx *gorm.DB, contact *models.Contact) error {
	has, err := contact.HasTag(tx, models.MembershipTagName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	tag, err := models.GetOrCreateContactTag(tx, models.MembershipTagName)
	if err != nil {
		return err
	}
	return tx.Model(contact).Association("Tags").Append(tag)
}
