package gateway

import (
	"net/http"

	"github.com/example/foodhub/pkg/coupon"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) activeCoupons(c *gin.Context) {
	coupons, err := g.services.Coupons.ListAvailable(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(coupons), "coupons": coupons})
}

func (g *Gateway) validateCoupon(c *gin.Context) {
	var req struct {
		Code        string  `json:"code"`
		OrderAmount float64 `json:"orderAmount"`
	}
	if !bind(c, &req) {
		return
	}
	quote, err := g.services.Coupons.Validate(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": quote})
}

func (g *Gateway) listCoupons(c *gin.Context) {
	coupons, err := g.services.Coupons.List(c.Request.Context(), queryBool(c, "isActive"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(coupons), "coupons": coupons})
}

func (g *Gateway) createCoupon(c *gin.Context) {
	var req coupon.Coupon
	if !bind(c, &req) {
		return
	}
	cp, err := g.services.Coupons.Create(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "coupon": cp})
}

func (g *Gateway) getCoupon(c *gin.Context) {
	id, ok := objectID(c, "id", "Coupon")
	if !ok {
		return
	}
	cp, err := g.services.Coupons.Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": cp})
}

func (g *Gateway) updateCoupon(c *gin.Context) {
	id, ok := objectID(c, "id", "Coupon")
	if !ok {
		return
	}
	var req coupon.Coupon
	if !bind(c, &req) {
		return
	}
	cp, err := g.services.Coupons.Update(c.Request.Context(), id, &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": cp})
}

func (g *Gateway) deleteCoupon(c *gin.Context) {
	id, ok := objectID(c, "id", "Coupon")
	if !ok {
		return
	}
	if err := g.services.Coupons.Delete(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coupon deleted"})
}

func (g *Gateway) toggleCouponStatus(c *gin.Context) {
	id, ok := objectID(c, "id", "Coupon")
	if !ok {
		return
	}
	cp, err := g.services.Coupons.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": cp})
}
