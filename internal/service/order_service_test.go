package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
)

func TestCalculateTotalUsesServerPrices(t *testing.T) {
	// A client claiming a price of 0.01 still pays the authoritative
	// price: 2 units at 100 total 200, not 0.02.
	items := []OrderItemRequest{
		{ProductID: 1, Quantity: 2, Price: 1},
	}
	products := map[int64]*models.Product{
		1: {ID: 1, Price: 100},
	}

	assert.Equal(t, int64(200), calculateTotal(items, products))
}

func TestCalculateTotalSumsAcrossItems(t *testing.T) {
	items := []OrderItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}
	products := map[int64]*models.Product{
		1: {ID: 1, Price: 1000},
		2: {ID: 2, Price: 500},
	}

	assert.Equal(t, int64(2*1000+1*500), calculateTotal(items, products))
}

func TestResolveVariantKeyCanonicalizesSelections(t *testing.T) {
	s := &OrderService{}
	product := &models.Product{
		ID:   1,
		Name: "Shirt",
		VariantSchema: models.VariantSchema{
			"Size":  {"S", "M", "L"},
			"Color": {"Red", "Blue"},
		},
	}

	key, err := s.resolveVariantKey(product, map[string]string{"Size": "M", "Color": "Red"})
	assert.NoError(t, err)
	assert.Equal(t, "Color:Red,Size:M", key)

	// Same selections in a different order yield the same key.
	key2, err := s.resolveVariantKey(product, map[string]string{"Color": "Red", "Size": "M"})
	assert.NoError(t, err)
	assert.Equal(t, key, key2)
}

func TestResolveVariantKeyRejectsUnknownSelections(t *testing.T) {
	s := &OrderService{}
	product := &models.Product{
		Name:          "Shirt",
		VariantSchema: models.VariantSchema{"Size": {"S", "M"}},
	}

	_, err := s.resolveVariantKey(product, map[string]string{"Size": "XXL"})
	var validationErr *apperr.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestResolveVariantKeyRequiresSelectionForVariantProducts(t *testing.T) {
	s := &OrderService{}
	product := &models.Product{
		Name:          "Shirt",
		VariantSchema: models.VariantSchema{"Size": {"S", "M"}},
	}

	_, err := s.resolveVariantKey(product, nil)
	var validationErr *apperr.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestResolveVariantKeyRejectsPartialSelections(t *testing.T) {
	s := &OrderService{}
	product := &models.Product{
		Name: "Shirt",
		VariantSchema: models.VariantSchema{
			"Size":  {"S", "M"},
			"Color": {"Red", "Blue"},
		},
	}

	// Size alone is not a stockable combination; it must fail validation
	// rather than resolve to an empty stock entry.
	_, err := s.resolveVariantKey(product, map[string]string{"Size": "M"})
	var validationErr *apperr.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestResolveVariantKeyIgnoredForPlainProducts(t *testing.T) {
	s := &OrderService{}
	product := &models.Product{Name: "Mug"}

	key, err := s.resolveVariantKey(product, map[string]string{"Size": "M"})
	assert.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestFailureReasonBuckets(t *testing.T) {
	assert.Equal(t, "insufficient_stock", failureReason(&apperr.InsufficientStockError{ProductName: "Mug"}))
	assert.Equal(t, "validation", failureReason(&apperr.ValidationError{Field: "variant", Reason: "bad"}))
	assert.Equal(t, "not_found", failureReason(apperr.ErrProductNotFound))
	assert.Equal(t, "internal", failureReason(errors.New("boom")))
}

func TestEventItemsCarryVariantKeys(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 3, UnitPrice: 100, SelectedVariant: "Color:Red,Size:M"},
		{ProductID: 2, Quantity: 1, UnitPrice: 50},
	}

	data := eventItems(items)

	assert.Len(t, data, 2)
	assert.Equal(t, "Color:Red,Size:M", data[0].SelectedVariant)
	assert.Equal(t, int64(100), data[0].UnitPrice)
	assert.Equal(t, "", data[1].SelectedVariant)
}

func TestCancellableStatus(t *testing.T) {
	assert.True(t, models.CancellableStatus(models.OrderStatusPending))
	assert.True(t, models.CancellableStatus(models.OrderStatusProcessing))
	assert.False(t, models.CancellableStatus(models.OrderStatusShipped))
	assert.False(t, models.CancellableStatus(models.OrderStatusDelivered))
	assert.False(t, models.CancellableStatus(models.OrderStatusCancelled))
}
