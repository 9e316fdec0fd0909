package routes

import (
	"github.com/LeeRude11/delivery/controllers"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/gin-gonic/gin"
)

// Controllers bundles every handler set the router mounts.
type Controllers struct {
	Accounts *controllers.AccountController
	Menu     *controllers.MenuController
	Orders   *controllers.OrderController
	Admin    *controllers.AdminController
	Info     *controllers.InfoController
}

// Register mounts all routes on r. Authentication and session middleware
// must already be installed on r.
func Register(r *gin.Engine, h Controllers) {
	r.GET("/", h.Info.Index)
	r.GET("/navbar", h.Info.Navbar)
	r.GET("/info/:view_name", h.Info.Page)

	menu := r.Group("/menu")
	menu.GET("/", h.Menu.List)
	menu.GET("/specials/", h.Menu.Specials)
	menu.GET("/:id/", h.Menu.Detail)
	menu.POST("/:id/update_cart", h.Menu.UpdateCart)

	orders := r.Group("/orders")
	orders.GET("/shopping_cart/", h.Orders.ShoppingCart)
	orders.GET("/checkout/", h.Orders.CheckoutPage)
	orders.POST("/checkout/", h.Orders.Checkout)

	history := orders.Group("")
	history.Use(middleware.LoginRequired())
	history.GET("/", h.Orders.List)
	history.GET("/:id", h.Orders.Detail)

	accounts := r.Group("/accounts")
	accounts.POST("/register/", h.Accounts.Register)
	accounts.GET("/login/", h.Accounts.LoginPage)
	accounts.POST("/login/", h.Accounts.Login)
	accounts.GET("/logout/", h.Accounts.Logout)
	accounts.POST("/logout/", h.Accounts.Logout)

	profile := accounts.Group("")
	profile.Use(middleware.LoginRequired())
	profile.GET("/profile/", h.Accounts.Profile)
	profile.POST("/profile/", h.Accounts.UpdateProfile)
	profile.POST("/password_change/", h.Accounts.ChangePassword)

	admin := r.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/menu/", h.Admin.CreateMenuItem)
	admin.PUT("/menu/:id", h.Admin.UpdateMenuItem)
	admin.POST("/menu/availability", h.Admin.SetAvailability)
	admin.POST("/menu/:id/image", h.Admin.PresignImage)
	admin.GET("/orders/", h.Admin.ListOrders)
	admin.POST("/orders/:id/advance", h.Admin.AdvanceOrder)
	admin.PUT("/orders/:id/lines/:line_id", h.Admin.UpdateOrderLine)
	admin.DELETE("/orders/:id/lines/:line_id", h.Admin.DeleteOrderLine)
	admin.POST("/info/", h.Admin.CreateInfoPage)
}
