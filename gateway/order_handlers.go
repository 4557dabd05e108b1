package gateway

import (
	"net/http"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	DeliveryAddress struct {
		Label   string `json:"label"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
	} `json:"deliveryAddress"`
	PaymentMethod       order.PaymentMethod `json:"paymentMethod"`
	SpecialInstructions string              `json:"specialInstructions"`
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req createOrderRequest
	if !bind(c, &req) {
		return
	}
	addr := req.DeliveryAddress
	if addr.Street == "" || addr.City == "" || addr.State == "" || addr.ZipCode == "" {
		abort(c, http.StatusBadRequest, "Delivery address is required")
		return
	}
	method := req.PaymentMethod
	if method == "" {
		method = order.PaymentCOD
	}

	o, err := g.services.Orders.Checkout(c.Request.Context(), actorOf(c), service.CheckoutInput{
		Address: models.Address{
			Label:   addr.Label,
			Street:  addr.Street,
			City:    addr.City,
			State:   addr.State,
			ZipCode: addr.ZipCode,
		},
		PaymentMethod:       method,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": o})
}

func (g *Gateway) listOrders(c *gin.Context) {
	restaurantID, ok := queryObjectID(c, "restaurant")
	if !ok {
		return
	}
	from, ok := queryTime(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryTime(c, "endDate")
	if !ok {
		return
	}

	orders, err := g.services.Orders.ListAll(c.Request.Context(), repository.OrderFilter{
		Status:       order.Status(c.Query("status")),
		RestaurantID: restaurantID,
		From:         from,
		To:           to,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

func (g *Gateway) myOrders(c *gin.Context) {
	orders, err := g.services.Orders.ListMine(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

func (g *Gateway) deliveryOrders(c *gin.Context) {
	orders, err := g.services.Orders.ListForDelivery(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

func (g *Gateway) orderStats(c *gin.Context) {
	stats, err := g.services.Orders.Stats(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, ok := objectID(c, "id", "Order")
	if !ok {
		return
	}
	o, err := g.services.Orders.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	id, ok := objectID(c, "id", "Order")
	if !ok {
		return
	}
	var req struct {
		Status order.Status `json:"status"`
		Note   string       `json:"note"`
	}
	if !bind(c, &req) {
		return
	}
	o, err := g.services.Orders.UpdateStatus(c.Request.Context(), actorOf(c), id, req.Status, req.Note)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id, ok := objectID(c, "id", "Order")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !bindOptional(c, &req) {
		return
	}
	o, err := g.services.Orders.Cancel(c.Request.Context(), actorOf(c), id, req.Reason)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) assignDeliveryPartner(c *gin.Context) {
	id, ok := objectID(c, "id", "Order")
	if !ok {
		return
	}
	var req struct {
		DeliveryPartnerID string `json:"deliveryPartnerId"`
	}
	if !bind(c, &req) {
		return
	}
	o, err := g.services.Orders.AssignDeliveryPartner(c.Request.Context(), actorOf(c), id, req.DeliveryPartnerID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) orderAudit(c *gin.Context) {
	id, ok := objectID(c, "id", "Order")
	if !ok {
		return
	}
	entries, err := g.services.Orders.AuditTrail(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "entries": entries})
}
