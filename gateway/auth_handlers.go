package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type addressRequest struct {
	Label     string `json:"label"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	IsDefault bool   `json:"isDefault"`
}

func (r addressRequest) address() models.Address {
	return models.Address{
		Label:     r.Label,
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		IsDefault: r.IsDefault,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (g *Gateway) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	sess, err := g.services.Auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	g.sendSession(c, http.StatusCreated, sess)
}

func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	sess, err := g.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.sendSession(c, http.StatusOK, sess)
}

func (g *Gateway) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (g *Gateway) refreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !bind(c, &req) {
		return
	}
	sess, err := g.services.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.sendSession(c, http.StatusOK, sess)
}

func (g *Gateway) me(c *gin.Context) {
	u, err := g.services.Auth.Me(c.Request.Context(), actorOf(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (g *Gateway) updateProfile(c *gin.Context) {
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	u, err := g.services.Auth.UpdateProfile(c.Request.Context(), actorOf(c), req.Name, req.Phone)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (g *Gateway) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	sess, err := g.services.Auth.ChangePassword(c.Request.Context(), actorOf(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.sendSession(c, http.StatusOK, sess)
}

func (g *Gateway) addAddress(c *gin.Context) {
	var req addressRequest
	if !bind(c, &req) {
		return
	}
	addrs, err := g.services.Auth.AddAddress(c.Request.Context(), actorOf(c), req.address())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "addresses": addrs})
}

func (g *Gateway) updateAddress(c *gin.Context) {
	id, ok := addressID(c)
	if !ok {
		return
	}
	var req addressRequest
	if !bind(c, &req) {
		return
	}
	addrs, err := g.services.Auth.UpdateAddress(c.Request.Context(), actorOf(c), id, req.address())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": addrs})
}

func (g *Gateway) deleteAddress(c *gin.Context) {
	id, ok := addressID(c)
	if !ok {
		return
	}
	addrs, err := g.services.Auth.DeleteAddress(c.Request.Context(), actorOf(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": addrs})
}

func (g *Gateway) listUsers(c *gin.Context) {
	users, err := g.services.Auth.ListUsers(c.Request.Context(), models.Role(c.Query("role")))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

// sendSession writes the session body and mirrors the access token into an
// HTTP-only cookie.
func (g *Gateway) sendSession(c *gin.Context, status int, sess *service.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, sess.Token, int(g.services.Tokens.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(status, gin.H{
		"success":      true,
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"user":         sess.User,
	})
}

func addressID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("addressId"), 10, 64)
	if err != nil || id == 0 {
		abort(c, http.StatusNotFound, "Address not found")
		return 0, false
	}
	return uint(id), true
}
