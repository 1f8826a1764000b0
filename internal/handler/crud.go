package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/query"
	"github.com/ngocthuan/blog-api/internal/repository"
)

// CrudHandler serves the collection and item endpoints for one resource.
// All behavior comes from the resource descriptor; the handler only does
// HTTP plumbing.
type CrudHandler struct {
	DB       *sql.DB
	Resource *repository.Resource
}

func NewCrudHandler(db *sql.DB, res *repository.Resource) *CrudHandler {
	return &CrudHandler{DB: db, Resource: res}
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.Validation("Invalid ID")
	}
	return id, nil
}

// List returns one filtered, sorted, projected and paginated page of rows.
func (h *CrudHandler) List(c echo.Context) error {
	f, err := query.Parse(c.Request().URL.Query())
	if err != nil {
		return err
	}
	res, err := h.Resource.FindAndCount(c.Request().Context(), h.DB, f)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, res)
}

// GetOne returns a single row, optionally projected via fields=.
func (h *CrudHandler) GetOne(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	f, err := query.Parse(c.Request().URL.Query())
	if err != nil {
		return err
	}
	row, err := h.Resource.FindByID(c.Request().Context(), h.DB, id, f.Fields)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, row)
}

// CreateOne validates and inserts a new row.
func (h *CrudHandler) CreateOne(c echo.Context) error {
	var payload repository.Row
	if err := c.Bind(&payload); err != nil {
		return apperror.Validation("Invalid request body")
	}

	ctx := c.Request().Context()
	var row repository.Row
	err := repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		var err error
		row, err = h.Resource.Create(ctx, tx, payload)
		return err
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, row)
}

// UpdateOne patches a row with the supplied fields.
func (h *CrudHandler) UpdateOne(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var payload repository.Row
	if err := c.Bind(&payload); err != nil {
		return apperror.Validation("Invalid request body")
	}

	ctx := c.Request().Context()
	var row repository.Row
	err = repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		var err error
		row, err = h.Resource.UpdateByID(ctx, tx, id, payload)
		return err
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, row)
}

// DeleteOne soft-deletes a row.
func (h *CrudHandler) DeleteOne(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	err = repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		return h.Resource.SoftDeleteByID(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll soft-deletes every active row in the collection.
func (h *CrudHandler) DeleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	err := repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		return h.Resource.SoftDeleteAll(ctx, tx)
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
