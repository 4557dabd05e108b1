package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnknownCustomization = errors.New("unknown customization")

var (
	FoodCategories = []string{"starters", "main-course", "desserts", "drinks", "sides", "combos"}
	FoodTypes      = []string{"veg", "non-veg", "egg", "vegan"}
)

type CustomizationGroup struct {
	Name    string        `bson:"name" json:"name"`
	Options []cart.Option `bson:"options" json:"options"`
}

type FoodItem struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name" binding:"required"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	Price           float64              `bson:"price" json:"price" binding:"gte=0"`
	Image           string               `bson:"image,omitempty" json:"image,omitempty"`
	RestaurantID    primitive.ObjectID   `bson:"restaurant" json:"restaurant"`
	Category        string               `bson:"category" json:"category" binding:"required"`
	FoodType        string               `bson:"food_type" json:"foodType" binding:"required"`
	IsAvailable     bool                 `bson:"is_available" json:"isAvailable"`
	Rating          float64              `bson:"rating" json:"rating"`
	TotalRatings    int                  `bson:"total_ratings" json:"totalRatings"`
	PreparationTime string               `bson:"preparation_time" json:"preparationTime"`
	Customizations  []CustomizationGroup `bson:"customizations,omitempty" json:"customizations,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updatedAt"`
}

func (f *FoodItem) Validate() error {
	if f.RestaurantID.IsZero() {
		return fmt.Errorf("restaurant is required")
	}
	if !contains(FoodCategories, f.Category) {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	if !contains(FoodTypes, f.FoodType) {
		return fmt.Errorf("unknown food type %q", f.FoodType)
	}
	if f.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return nil
}

// MenuItem returns the pricing view of the food item.
func (f *FoodItem) MenuItem() cart.MenuItem {
	return cart.MenuItem{
		ID:           f.ID,
		RestaurantID: f.RestaurantID,
		Name:         f.Name,
		Price:        f.Price,
		Available:    f.IsAvailable,
	}
}

// ResolveCustomizations maps the requested selections onto the item's own
// customization groups, so option prices always come from the menu. A group or
// option the menu does not list is rejected with ErrUnknownCustomization
// rather than added at a price of zero.
func (f *FoodItem) ResolveCustomizations(requested []cart.Customization) ([]cart.Customization, error) {
	out := make([]cart.Customization, 0, len(requested))
	for _, req := range requested {
		group := f.customizationGroup(req.Name)
		if group == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCustomization, req.Name)
		}
		resolved := cart.Customization{Name: group.Name}
		if req.SelectedOption != nil {
			opt := group.option(req.SelectedOption.Label)
			if opt == nil {
				return nil, fmt.Errorf("%w: %q has no option %q", ErrUnknownCustomization, req.Name, req.SelectedOption.Label)
			}
			resolved.SelectedOption = &cart.Option{Label: opt.Label, Price: opt.Price}
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (f *FoodItem) customizationGroup(name string) *CustomizationGroup {
	for i := range f.Customizations {
		if f.Customizations[i].Name == name {
			return &f.Customizations[i]
		}
	}
	return nil
}

func (g *CustomizationGroup) option(label string) *cart.Option {
	for i := range g.Options {
		if g.Options[i].Label == label {
			return &g.Options[i]
		}
	}
	return nil
}

type FoodFilter struct {
	RestaurantID primitive.ObjectID
	Category     string
	FoodTypes    []string
	Search       string
	Available    *bool
	MinPrice     *float64
	MaxPrice     *float64
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
