package gateway

import (
	"net/http"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createReviewRequest struct {
	TargetType   models.ReviewTarget `json:"targetType"`
	RestaurantID primitive.ObjectID  `json:"restaurantId"`
	FoodItemID   primitive.ObjectID  `json:"foodItemId"`
	OrderID      primitive.ObjectID  `json:"orderId"`
	Rating       int                 `json:"rating"`
	Comment      string              `json:"comment"`
}

// target picks the id matching the declared target type.
func (r createReviewRequest) target() primitive.ObjectID {
	if r.TargetType == models.ReviewFood {
		return r.FoodItemID
	}
	return r.RestaurantID
}

func (g *Gateway) listReviews(c *gin.Context) {
	f := models.ReviewFilter{TargetType: models.ReviewTarget(c.Query("targetType"))}
	if f.TargetType == "" && c.Query("foodItemId") != "" {
		f.TargetType = models.ReviewFood
	}
	key := "restaurantId"
	if f.TargetType == models.ReviewFood {
		key = "foodItemId"
	}
	id, ok := queryObjectID(c, key)
	if !ok {
		return
	}
	f.TargetID = id

	reviews, err := g.services.Reviews.List(c.Request.Context(), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reviews), "reviews": reviews})
}

func (g *Gateway) myReviews(c *gin.Context) {
	reviews, err := g.services.Reviews.ListMine(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reviews), "reviews": reviews})
}

func (g *Gateway) createReview(c *gin.Context) {
	var req createReviewRequest
	if !bind(c, &req) {
		return
	}
	actor := actorOf(c)

	// The display name is a convenience; a failed lookup still records the review.
	var userName string
	if u, err := g.services.Auth.Me(c.Request.Context(), actor); err == nil {
		userName = u.Name
	} else {
		g.logger.Warn("review author lookup failed", zap.String("user_id", actor.ID), zap.Error(err))
	}

	rv, err := g.services.Reviews.Create(c.Request.Context(), actor, userName, service.ReviewInput{
		TargetType: req.TargetType,
		TargetID:   req.target(),
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "review": rv})
}

func (g *Gateway) updateReview(c *gin.Context) {
	id, ok := objectID(c, "id", "Review")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !bind(c, &req) {
		return
	}
	rv, err := g.services.Reviews.Update(c.Request.Context(), actorOf(c), id, req.Rating, req.Comment)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": rv})
}

func (g *Gateway) deleteReview(c *gin.Context) {
	id, ok := objectID(c, "id", "Review")
	if !ok {
		return
	}
	if err := g.services.Reviews.Delete(c.Request.Context(), actorOf(c), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Review deleted"})
}
