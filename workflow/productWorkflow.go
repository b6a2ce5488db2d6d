package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/models"
	"github.com/shidalgo0925/relatic-integration/utils"
)

// OrderItem is one normalized invoice line from the sale payload.
type OrderItem struct {
	Sku       string
	Name      string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	// TaxRate is the per-line tax percentage; nil means untaxed.
	TaxRate *decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Qty.Mul(i.UnitPrice)
}

// resolveProduct maps a SKU to a catalog product. When autoCreate is off, an
// unknown SKU is a permanent rejection naming the SKU. When on, a Service
// product is created under the integration category with an income account
// resolved from the category default or the chart fallback.
func resolveProduct(tx *gorm.DB, item OrderItem, autoCreate bool) (*models.Product, error) {
	product, err := models.GetProductBySku(tx, item.Sku)
	if err != nil {
		return nil, err
	}
	if product != nil {
		return product, nil
	}
	if !autoCreate {
		return nil, NewBusinessError(ErrCodeProductNotFound, fmt.Sprintf("unknown product sku %q", item.Sku))
	}

	category, err := getOrCreateAutoCategory(tx)
	if err != nil {
		return nil, err
	}
	incomeAccountId := category.IncomeAccountId
	if incomeAccountId == 0 {
		income, err := models.GetDefaultIncomeAccount(tx)
		if err != nil {
			return nil, err
		}
		if income == nil {
			return nil, NewBusinessError(ErrCodeIncomeAccountMissing, fmt.Sprintf("no income account available for auto-created sku %q", item.Sku))
		}
		incomeAccountId = income.ID
	}

	name := item.Name
	if name == "" {
		name = item.Sku
	}
	product = &models.Product{
		Sku:             item.Sku,
		Name:            name,
		Type:            models.ProductTypeService,
		CategoryId:      category.ID,
		IncomeAccountId: incomeAccountId,
		SaleOk:          utils.NewTrue(),
		PurchaseOk:      utils.NewFalse(),
		AutoCreated:     utils.NewTrue(),
	}
	if err := tx.Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func getOrCreateAutoCategory(tx *gorm.DB) (*models.ProductCategory, error) {
	category, err := models.GetProductCategoryByName(tx, models.AutoCreateCategoryName)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}
	var parentId int
	parent, err := models.GetProductCategoryByName(tx, "All")
	if err != nil {
		return nil, err
	}
	if parent != nil {
		parentId = parent.ID
	}
	category = &models.ProductCategory{
		Name:     models.AutoCreateCategoryName,
		ParentId: parentId,
	}
	if err := tx.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// incomeAccountForProduct prefers the product's own income account, then its
// category's, then the chart fallback. A miss at every level is fatal for the
// line.
func incomeAccountForProduct(tx *gorm.DB, product *models.Product) (int, error) {
	if product.IncomeAccountId != 0 {
		return product.IncomeAccountId, nil
	}
	if product.CategoryId != 0 {
		var category models.ProductCategory
		if err := tx.Take(&category, product.CategoryId).Error; err == nil && category.IncomeAccountId != 0 {
			return category.IncomeAccountId, nil
		}
	}
	income, err := models.GetDefaultIncomeAccount(tx)
	if err != nil {
		return 0, err
	}
	if income == nil {
		return 0, NewBusinessError(ErrCodeIncomeAccountMissing, fmt.Sprintf("no income account resolvable for sku %q", product.Sku))
	}
	return income.ID, nil
}
