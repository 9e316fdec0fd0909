package controllers

import (
	"net/http"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
)

// MenuController serves the public menu and the cart amount updates.
type MenuController struct {
	menu services.MenuService
	cart services.CartService
}

func NewMenuController(menu services.MenuService, cart services.CartService) *MenuController {
	return &MenuController{menu: menu, cart: cart}
}

// List handles GET /menu/.
func (mc *MenuController) List(c *gin.Context) {
	items, err := mc.menu.List(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Specials handles GET /menu/specials/.
func (mc *MenuController) Specials(c *gin.Context) {
	items, err := mc.menu.Specials(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Detail handles GET /menu/:id/ and includes the amount already in the cart.
func (mc *MenuController) Detail(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	item, err := mc.menu.Get(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	amount, err := mc.cart.ItemQuantity(ctx, middleware.SessionID(c), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MenuItemDetail{MenuItem: *item, CartAmount: amount})
}

// UpdateCart handles POST /menu/:id/update_cart.
func (mc *MenuController) UpdateCart(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	amount, err := rawAmount(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	res, err := mc.cart.UpdateCart(c.Request.Context(), middleware.SessionID(c), id, amount)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
