package models

import (
	"testing"

	"github.com/example/foodhub/pkg/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pizza() *FoodItem {
	return &FoodItem{
		ID:           primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		Name:         "Margherita",
		Price:        9,
		Category:     "main-course",
		FoodType:     "veg",
		IsAvailable:  true,
		Customizations: []CustomizationGroup{
			{Name: "Size", Options: []cart.Option{{Label: "Regular"}, {Label: "Large", Price: 3}}},
			{Name: "Crust", Options: []cart.Option{{Label: "Thin"}, {Label: "Cheese burst", Price: 2.5}}},
		},
	}
}

func TestFoodItem_ResolveCustomizations(t *testing.T) {
	f := pizza()

	got, err := f.ResolveCustomizations([]cart.Customization{
		{Name: "Size", SelectedOption: &cart.Option{Label: "Large", Price: 0}},
		{Name: "Crust"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].SelectedOption.Price, "price comes from the menu, not the request")
	assert.Nil(t, got[1].SelectedOption)

	got, err = f.ResolveCustomizations(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Selections missing from the menu are refused, never priced at zero.
func TestFoodItem_ResolveCustomizations_RejectsUnlistedSelections(t *testing.T) {
	f := pizza()

	_, err := f.ResolveCustomizations([]cart.Customization{{Name: "Toppings"}})
	assert.ErrorIs(t, err, ErrUnknownCustomization)

	_, err = f.ResolveCustomizations([]cart.Customization{{Name: "Size", SelectedOption: &cart.Option{Label: "Family", Price: 0}}})
	assert.ErrorIs(t, err, ErrUnknownCustomization)
	assert.Contains(t, err.Error(), `"Family"`)
}

func TestFoodItem_Validate(t *testing.T) {
	require.NoError(t, pizza().Validate())

	bad := []func(f *FoodItem){
		func(f *FoodItem) { f.RestaurantID = primitive.NilObjectID },
		func(f *FoodItem) { f.Category = "snacks" },
		func(f *FoodItem) { f.FoodType = "keto" },
		func(f *FoodItem) { f.Price = -1 },
	}
	for i, mutate := range bad {
		f := pizza()
		mutate(f)
		assert.Error(t, f.Validate(), "case %d", i)
	}
}

func TestFoodItem_MenuItem(t *testing.T) {
	f := pizza()
	f.IsAvailable = false
	m := f.MenuItem()
	assert.Equal(t, f.ID, m.ID)
	assert.Equal(t, f.RestaurantID, m.RestaurantID)
	assert.False(t, m.Available)
}

func TestRestaurant_ApplyDefaults(t *testing.T) {
	r := &Restaurant{Name: "Spice Route", DeliveryTime: "20 mins"}
	r.ApplyDefaults()
	assert.Equal(t, "20 mins", r.DeliveryTime)
	assert.Equal(t, OpeningHours{Open: "09:00", Close: "22:00"}, r.OpeningHours)
}
