package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// AutoCreateCategoryName is the catalog bucket for products created lazily on
// first reference to an unknown SKU.
const AutoCreateCategoryName = "Relatic"

type ProductCategory struct {
	ID              int       `gorm:"primary_key" json:"id"`
	Name            string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	ParentId        int       `gorm:"index" json:"parent_id"`
	IncomeAccountId int       `json:"income_account_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Product struct {
	ID              int         `gorm:"primary_key" json:"id"`
	Sku             string      `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Name            string      `gorm:"size:255;not null" json:"name"`
	Type            ProductType `gorm:"type:enum('Service','Goods');default:'Service';size:10;not null" json:"type"`
	CategoryId      int         `gorm:"index" json:"category_id"`
	IncomeAccountId int         `json:"income_account_id"`
	SaleOk          *bool       `gorm:"not null;default:true" json:"sale_ok"`
	PurchaseOk      *bool       `gorm:"not null;default:false" json:"purchase_ok"`
	// AutoCreated marks system-generated products from the sync pipeline.
	AutoCreated *bool     `gorm:"not null;default:false" json:"auto_created"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetProductBySku returns (nil, nil) when the SKU is unknown.
func GetProductBySku(tx *gorm.DB, sku string) (*Product, error) {
	var product Product
	err := tx.Where("sku = ?", sku).Take(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func GetProductCategoryByName(tx *gorm.DB, name string) (*ProductCategory, error) {
	var category ProductCategory
	err := tx.Where("name = ?", name).Take(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}
