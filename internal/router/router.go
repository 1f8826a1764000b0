// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ngocthuan/blog-api/internal/handler"
	"github.com/ngocthuan/blog-api/internal/middleware"
	"github.com/ngocthuan/blog-api/internal/model"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.CrudHandler
	Blogs     *handler.CrudHandler
	Protect   echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// Register mounts the health check and the /api/v1 surface: the auth
// group (rate limited), the admin-only user CRUD and the public blog
// CRUD.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/users/auth", d.RateLimit)
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/forgotPassword", d.Auth.ForgotPassword)
	auth.POST("/resetPassword/:token", d.Auth.ResetPassword)
	auth.POST("/refreshToken", d.Auth.Refresh)

	users := v1.Group("/users", d.Protect, middleware.RestrictTo(model.RoleAdmin))
	users.GET("", d.Users.List, middleware.Pagination())
	users.POST("", d.Users.CreateOne)
	users.DELETE("", d.Users.DeleteAll)
	users.GET("/:id", d.Users.GetOne)
	users.PATCH("/:id", d.Users.UpdateOne)
	users.DELETE("/:id", d.Users.DeleteOne)

	blogs := v1.Group("/blogs")
	blogs.GET("", d.Blogs.List, middleware.Pagination())
	blogs.POST("", d.Blogs.CreateOne)
	blogs.DELETE("", d.Blogs.DeleteAll)
	blogs.GET("/:id", d.Blogs.GetOne)
	blogs.PATCH("/:id", d.Blogs.UpdateOne)
	blogs.DELETE("/:id", d.Blogs.DeleteOne)
}
