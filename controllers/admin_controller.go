package controllers

import (
	"net/http"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
)

// AdminController exposes the staff-only management endpoints.
type AdminController struct {
	menu   services.MenuService
	orders services.OrderService
	info   services.InfoService
}

func NewAdminController(menu services.MenuService, orders services.OrderService, info services.InfoService) *AdminController {
	return &AdminController{menu: menu, orders: orders, info: info}
}

// CreateMenuItem handles POST /admin/menu/.
func (ac *AdminController) CreateMenuItem(c *gin.Context) {
	var req models.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	item, err := ac.menu.Create(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateMenuItem handles PUT /admin/menu/:id.
func (ac *AdminController) UpdateMenuItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	item, err := ac.menu.Update(c.Request.Context(), id, &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SetAvailability handles POST /admin/menu/availability, the bulk
// make available / hide action.
func (ac *AdminController) SetAvailability(c *gin.Context) {
	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	msg, err := ac.menu.SetAvailability(c.Request.Context(), req.IDs, *req.Available)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// PresignImage handles POST /admin/menu/:id/image.
func (ac *AdminController) PresignImage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	upload, err := ac.menu.PresignImageUpload(c.Request.Context(), id, &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload_url": upload.URL,
		"method":     http.MethodPut,
		"key":        upload.Key,
		"headers":    upload.Headers,
		"expires_at": upload.ExpiresAt,
	})
}

// ListOrders handles GET /admin/orders/.
func (ac *AdminController) ListOrders(c *gin.Context) {
	page, limit := parsePaginationParams(c)

	orders, total, err := ac.orders.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_more":    total > int64(page*limit),
		},
	})
}

// AdvanceOrder handles POST /admin/orders/:id/advance.
func (ac *AdminController) AdvanceOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	order, err := ac.orders.Advance(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "status": order.Status()})
}

// UpdateOrderLine handles PUT /admin/orders/:id/lines/:line_id.
func (ac *AdminController) UpdateOrderLine(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	lineID, err := parseIDParam(c, "line_id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.OrderLineUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	order, err := ac.orders.UpdateLine(c.Request.Context(), orderID, lineID, *req.Amount)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrderLine handles DELETE /admin/orders/:id/lines/:line_id.
func (ac *AdminController) DeleteOrderLine(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	lineID, err := parseIDParam(c, "line_id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	order, err := ac.orders.DeleteLine(c.Request.Context(), orderID, lineID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CreateInfoPage handles POST /admin/info/.
func (ac *AdminController) CreateInfoPage(c *gin.Context) {
	var req models.InfoPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}
	page, err := ac.info.Create(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": page})
}
