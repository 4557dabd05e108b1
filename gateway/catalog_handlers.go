package gateway

import (
	"net/http"

	"github.com/example/foodhub/pkg/models"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) listRestaurants(c *gin.Context) {
	f := models.RestaurantFilter{
		Search:     c.Query("search"),
		Categories: queryList(c, "category"),
		City:       c.Query("city"),
		Active:     queryBool(c, "isActive"),
	}
	minRating, ok := queryFloat(c, "rating")
	if !ok {
		return
	}
	if minRating != nil {
		f.MinRating = *minRating
	}

	restaurants, err := g.services.Catalog.ListRestaurants(c.Request.Context(), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(restaurants), "restaurants": restaurants})
}

func (g *Gateway) getRestaurant(c *gin.Context) {
	id, ok := objectID(c, "id", "Restaurant")
	if !ok {
		return
	}
	r, err := g.services.Catalog.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "restaurant": r})
}

func (g *Gateway) createRestaurant(c *gin.Context) {
	var req models.Restaurant
	if !bind(c, &req) {
		return
	}
	r, err := g.services.Catalog.CreateRestaurant(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "restaurant": r})
}

func (g *Gateway) updateRestaurant(c *gin.Context) {
	id, ok := objectID(c, "id", "Restaurant")
	if !ok {
		return
	}
	var req models.Restaurant
	if !bind(c, &req) {
		return
	}
	r, err := g.services.Catalog.UpdateRestaurant(c.Request.Context(), id, &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "restaurant": r})
}

func (g *Gateway) deleteRestaurant(c *gin.Context) {
	id, ok := objectID(c, "id", "Restaurant")
	if !ok {
		return
	}
	if err := g.services.Catalog.DeleteRestaurant(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Restaurant deleted"})
}

func (g *Gateway) toggleRestaurantStatus(c *gin.Context) {
	id, ok := objectID(c, "id", "Restaurant")
	if !ok {
		return
	}
	r, err := g.services.Catalog.ToggleRestaurantStatus(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "restaurant": r})
}

func (g *Gateway) listFoodItems(c *gin.Context) {
	restaurantID, ok := queryObjectID(c, "restaurant")
	if !ok {
		return
	}
	minPrice, ok := queryFloat(c, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := queryFloat(c, "maxPrice")
	if !ok {
		return
	}

	items, err := g.services.Catalog.ListFoodItems(c.Request.Context(), models.FoodFilter{
		RestaurantID: restaurantID,
		Category:     c.Query("category"),
		FoodTypes:    queryList(c, "foodType"),
		Search:       c.Query("search"),
		Available:    queryBool(c, "isAvailable"),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "foodItems": items})
}

func (g *Gateway) getFoodItem(c *gin.Context) {
	id, ok := objectID(c, "id", "Food item")
	if !ok {
		return
	}
	f, err := g.services.Catalog.GetFoodItem(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "foodItem": f})
}

func (g *Gateway) createFoodItem(c *gin.Context) {
	var req models.FoodItem
	if !bind(c, &req) {
		return
	}
	f, err := g.services.Catalog.CreateFoodItem(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "foodItem": f})
}

func (g *Gateway) updateFoodItem(c *gin.Context) {
	id, ok := objectID(c, "id", "Food item")
	if !ok {
		return
	}
	var req models.FoodItem
	if !bind(c, &req) {
		return
	}
	f, err := g.services.Catalog.UpdateFoodItem(c.Request.Context(), id, &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "foodItem": f})
}

func (g *Gateway) deleteFoodItem(c *gin.Context) {
	id, ok := objectID(c, "id", "Food item")
	if !ok {
		return
	}
	if err := g.services.Catalog.DeleteFoodItem(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Food item deleted"})
}

func (g *Gateway) toggleAvailability(c *gin.Context) {
	id, ok := objectID(c, "id", "Food item")
	if !ok {
		return
	}
	f, err := g.services.Catalog.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "foodItem": f})
}

func (g *Gateway) menu(c *gin.Context) {
	id, ok := objectID(c, "restaurantId", "Restaurant")
	if !ok {
		return
	}
	menu, err := g.services.Catalog.Menu(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menu": menu})
}
