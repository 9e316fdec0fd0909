package controllers

import (
	"net/http"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
)

type InfoController struct {
	info services.InfoService
}

func NewInfoController(info services.InfoService) *InfoController {
	return &InfoController{info: info}
}

// Index handles GET /.
func (ic *InfoController) Index(c *gin.Context) {
	nav, err := ic.info.Navbar(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	body := gin.H{"navbar": nav}
	if user := middleware.CurrentUser(c); user != nil {
		body["user"] = user.ShortName()
	}
	c.JSON(http.StatusOK, body)
}

// Navbar handles GET /navbar.
func (ic *InfoController) Navbar(c *gin.Context) {
	nav, err := ic.info.Navbar(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"navbar": nav})
}

// Page handles GET /info/:view_name.
func (ic *InfoController) Page(c *gin.Context) {
	page, err := ic.info.Get(c.Request.Context(), c.Param("view_name"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}
