package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ngocthuan/blog-api/internal/query"
)

// Pagination rewrites the size/page query parameters into limit/offset
// before the handler parses the filter, defaulting to 3 items on page 0.
func Pagination() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			values := r.URL.Query()
			if err := query.ApplyPageSize(values); err != nil {
				return err
			}
			r.URL.RawQuery = values.Encode()
			return next(c)
		}
	}
}
