package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/utils"
)

// SeedDefaults provisions the minimal chart of accounts, journals, tax and
// country rows the sync pipeline depends on. Idempotent: existing rows are
// left untouched.
func SeedDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := seedAccount(tx, Account{
			DetailType:   AccountDetailTypeAccountsReceivable,
			Name:         "Accounts Receivable",
			Code:         "1200",
			Reconcilable: utils.NewTrue(),
			IsActive:     utils.NewTrue(),
		}); err != nil {
			return err
		}

		if _, err := seedAccount(tx, Account{
			DetailType: AccountDetailTypeIncome,
			Name:       "Membership Income",
			Code:       "4000",
			IsActive:   utils.NewTrue(),
		}); err != nil {
			return err
		}

		taxAccount, err := seedAccount(tx, Account{
			DetailType: AccountDetailTypeOutputTax,
			Name:       "Output Tax Payable",
			Code:       "2300",
			IsActive:   utils.NewTrue(),
		})
		if err != nil {
			return err
		}

		bankNames := map[string]string{
			"YAPPY":         "1101",
			"TARJETA":       "1102",
			"TRANSFERENCIA": "1103",
		}
		for name, code := range bankNames {
			bank, err := seedAccount(tx, Account{
				DetailType: AccountDetailTypeBank,
				Name:       "Bank " + name,
				Code:       code,
				IsActive:   utils.NewTrue(),
			})
			if err != nil {
				return err
			}
			if err := seedJournal(tx, Journal{
				Name:             name,
				Type:             JournalTypeBank,
				DefaultAccountId: bank.ID,
			}); err != nil {
				return err
			}
		}

		if err := seedSaleTax(tx, Tax{
			Name:      "ITBMS 7%",
			Rate:      decimal.NewFromInt(7),
			TaxUse:    TaxUseSale,
			AccountId: taxAccount.ID,
			IsActive:  utils.NewTrue(),
		}); err != nil {
			return err
		}

		countries := map[string]string{
			"PA": "Panama",
			"CO": "Colombia",
			"MX": "Mexico",
			"ES": "Spain",
		}
		for code, name := range countries {
			if err := seedCountry(tx, Country{Code: code, Name: name}); err != nil {
				return err
			}
		}
		return nil
	})
}

func seedAccount(tx *gorm.DB, account Account) (*Account, error) {
	var existing Account
	err := tx.Where("code = ?", account.Code).Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func seedJournal(tx *gorm.DB, journal Journal) error {
	var existing Journal
	err := tx.Where("name = ?", journal.Name).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&journal).Error
}

func seedSaleTax(tx *gorm.DB, tax Tax) error {
	existing, err := GetSaleTaxByRate(tx, tax.Rate)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return tx.Create(&tax).Error
}

func seedCountry(tx *gorm.DB, country Country) error {
	existing, err := GetCountryByCode(tx, country.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return tx.Create(&country).Error
}
