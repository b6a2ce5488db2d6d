package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Account struct {
	ID         int               `gorm:"primary_key" json:"id"`
	DetailType AccountDetailType `gorm:"type:enum('Cash','Bank','AccountsReceivable','Income','OutputTax');index;size:30;not null" json:"detail_type"`
	Name       string            `gorm:"index;size:100;not null" json:"name"`
	Code       string            `gorm:"index;size:20" json:"code"`
	// Reconcilable accounts carry open items that settlements are matched
	// against (receivables here).
	Reconcilable *bool     `gorm:"not null;default:false" json:"reconcilable"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Journal struct {
	ID               int         `gorm:"primary_key" json:"id"`
	Name             string      `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Type             JournalType `gorm:"type:enum('Bank','Cash','General');default:'General';size:10;not null" json:"type"`
	DefaultAccountId int         `json:"default_account_id"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type Tax struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	TaxUse    TaxUse          `gorm:"type:enum('Sale','Purchase');default:'Sale';size:10;not null" json:"tax_use"`
	AccountId int             `json:"account_id"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetAccount(tx *gorm.DB, id int) (*Account, error) {
	var account Account
	if err := tx.Take(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetDefaultReceivableAccount returns the first active receivable account, or
// (nil, nil) when the chart has none configured.
func GetDefaultReceivableAccount(tx *gorm.DB) (*Account, error) {
	return firstAccount(tx, tx.Where("detail_type = ? AND is_active = true", AccountDetailTypeAccountsReceivable))
}

// GetDefaultIncomeAccount returns the first active income account whose code
// is in the 4xxx range, or (nil, nil) when none qualifies.
func GetDefaultIncomeAccount(tx *gorm.DB) (*Account, error) {
	return firstAccount(tx, tx.Where("detail_type = ? AND code LIKE ? AND is_active = true", AccountDetailTypeIncome, "4%"))
}

func firstAccount(tx *gorm.DB, query *gorm.DB) (*Account, error) {
	var account Account
	err := query.Order("id").First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetBankJournalByName returns (nil, nil) when no bank journal matches.
func GetBankJournalByName(tx *gorm.DB, name string) (*Journal, error) {
	var journal Journal
	err := tx.Where("name = ? AND type = ?", name, JournalTypeBank).Take(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &journal, nil
}

// GetSaleTaxByRate looks a sale tax up by its exact rate. A missing definition
// is not an error; callers treat it as zero-tax. Returns (nil, nil) when absent.
func GetSaleTaxByRate(tx *gorm.DB, rate decimal.Decimal) (*Tax, error) {
	var tax Tax
	err := tx.Where("rate = ? AND tax_use = ? AND is_active = true", rate, TaxUseSale).
		Order("id").First(&tax).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tax, nil
}
