package controllers

import (
	"errors"
	"net/http"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
)

const ShoppingCartURL = "/orders/shopping_cart/"

// OrderController handles the cart page, checkout and order history.
type OrderController struct {
	cart     services.CartService
	checkout services.CheckoutService
	orders   services.OrderService
}

func NewOrderController(cart services.CartService, checkout services.CheckoutService, orders services.OrderService) *OrderController {
	return &OrderController{cart: cart, checkout: checkout, orders: orders}
}

// ShoppingCart handles GET /orders/shopping_cart/.
func (oc *OrderController) ShoppingCart(c *gin.Context) {
	view, err := oc.cart.View(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CheckoutPage handles GET /orders/checkout/.
func (oc *OrderController) CheckoutPage(c *gin.Context) {
	summary, err := oc.checkout.Summary(c.Request.Context(), middleware.SessionID(c), middleware.CurrentUser(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Checkout handles POST /orders/checkout/. An empty cart sends the browser
// back to the cart page with a message, whatever the submitted form holds.
func (oc *OrderController) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	req, bindErr := bindCheckout(c)
	if bindErr != nil {
		empty, err := oc.cart.IsEmpty(ctx, sid)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if empty {
			oc.redirectEmptyCart(c, sid)
			return
		}
		apperrors.Respond(c, bindErr)
		return
	}

	order, err := oc.checkout.Checkout(ctx, sid, middleware.CurrentUser(c), req)
	if errors.Is(err, apperrors.ErrEmptyCart) {
		oc.redirectEmptyCart(c, sid)
		return
	}
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (oc *OrderController) redirectEmptyCart(c *gin.Context, sid string) {
	if err := oc.cart.AddMessage(c.Request.Context(), sid, apperrors.ErrEmptyCart.Message); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Redirect(http.StatusFound, ShoppingCartURL)
}

// bindCheckout accepts {"contact": {...}} as JSON or the contact fields as a
// flat form. A form without a phone number carries no contact details.
func bindCheckout(c *gin.Context) (*models.CheckoutRequest, error) {
	var req models.CheckoutRequest
	if isJSON(c) {
		if c.Request.ContentLength == 0 {
			return &req, nil
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, bindingError(err)
		}
		return &req, nil
	}

	if _, ok := c.GetPostForm("phone_number"); !ok {
		return &req, nil
	}
	var contact models.ContactDetails
	if err := c.ShouldBind(&contact); err != nil {
		return nil, bindingError(err)
	}
	req.Contact = &contact
	return &req, nil
}

// List handles GET /orders/.
func (oc *OrderController) List(c *gin.Context) {
	orders, err := oc.orders.ListForUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Detail handles GET /orders/:id.
func (oc *OrderController) Detail(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	order, err := oc.orders.GetForUser(c.Request.Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "status": order.Status()})
}
