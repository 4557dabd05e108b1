package gateway

import (
	"net/http"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type addToCartRequest struct {
	FoodItemID     primitive.ObjectID   `json:"foodItemId"`
	Quantity       *int                 `json:"quantity"`
	Customizations []cart.Customization `json:"customizations"`
}

func (g *Gateway) getCart(c *gin.Context) {
	ct, err := g.services.Cart.Get(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct})
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req addToCartRequest
	if !bind(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	ct, err := g.services.Cart.AddItem(c.Request.Context(), actorOf(c), service.AddItemInput{
		FoodItemID:     req.FoodItemID,
		Quantity:       quantity,
		Customizations: req.Customizations,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct})
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bind(c, &req) {
		return
	}
	ct, err := g.services.Cart.UpdateItem(c.Request.Context(), actorOf(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct})
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	ct, err := g.services.Cart.RemoveItem(c.Request.Context(), actorOf(c), c.Param("itemId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct})
}

func (g *Gateway) clearCart(c *gin.Context) {
	if _, err := g.services.Cart.Clear(c.Request.Context(), actorOf(c)); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
}

func (g *Gateway) applyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if !bind(c, &req) {
		return
	}
	ct, err := g.services.Cart.ApplyCoupon(c.Request.Context(), actorOf(c), req.Code)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct, "message": "Coupon applied successfully"})
}

func (g *Gateway) removeCoupon(c *gin.Context) {
	ct, err := g.services.Cart.RemoveCoupon(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": ct})
}
