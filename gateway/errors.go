package gateway

import (
	"errors"
	"net/http"

	"github.com/example/foodhub/pkg/auth"
	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/lock"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var badRequest = []error{
	service.ErrInvalidInput,
	service.ErrAlreadyExists,
	coupon.ErrInvalid,
	cart.ErrItemUnavailable,
	cart.ErrCrossRestaurant,
	cart.ErrLineNotFound,
	cart.ErrEmptyCart,
	cart.ErrInvalidQuantity,
	models.ErrUnknownCustomization,
	order.ErrMissingRestaurant,
	order.ErrInvalidTransition,
	order.ErrUnknownStatus,
	order.ErrInvalidPaymentMethod,
}

// statusFor maps a service error onto the HTTP status returned to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict), errors.Is(err, lock.ErrNotAcquired):
		return http.StatusConflict
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func messageFor(err error, status int) string {
	switch {
	case status == http.StatusInternalServerError:
		return "Server error"
	case status == http.StatusConflict:
		return "Request conflicted with a concurrent update, please retry"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, order.ErrUnauthorized):
		return "Not authorized"
	}
	return err.Error()
}

func (g *Gateway) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	abort(c, status, messageFor(err, status))
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
