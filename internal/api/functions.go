package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/functions"
	"github.com/asedra/attila/internal/store"
)

// FunctionCreateRequest is the request to add a function to the catalog.
type FunctionCreateRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	Category       string          `json:"category"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	Implementation string          `json:"implementation,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// FunctionUpdateRequest carries optional function fields.
type FunctionUpdateRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Icon           *string         `json:"icon,omitempty"`
	Category       *string         `json:"category,omitempty"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	IsEnabled      *bool           `json:"isEnabled,omitempty"`
	Implementation *string         `json:"implementation,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// ExecuteRequest is the request to run a function.
type ExecuteRequest struct {
	Params map[string]interface{} `json:"params,omitempty"`
}

// ListFunctions lists the function catalog.
// GET /api/functions
func (h *Handler) ListFunctions(c echo.Context) error {
	ctx := c.Request().Context()
	includeDisabled := c.QueryParam("include_disabled") == "true"

	fns, err := h.functions.List(ctx, includeDisabled)
	if err != nil {
		log.Printf("ERROR: failed to list functions: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to list functions")
	}
	return c.JSON(http.StatusOK, fns)
}

// FunctionCategories lists the distinct catalog categories.
// GET /api/functions/categories
func (h *Handler) FunctionCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.functions.Categories(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list categories: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to list categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// FunctionsByCategory lists the enabled functions in one category.
// GET /api/functions/category/:category
func (h *Handler) FunctionsByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.Param("category")

	fns, err := h.functions.ByCategory(ctx, category)
	if err != nil {
		log.Printf("ERROR: failed to list functions by category: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to list functions")
	}
	return c.JSON(http.StatusOK, fns)
}

// GetFunction returns a single catalog entry.
// GET /api/functions/:function_id
func (h *Handler) GetFunction(c echo.Context) error {
	ctx := c.Request().Context()
	functionID := c.Param("function_id")

	fn, err := h.functions.Get(ctx, functionID)
	if err != nil {
		log.Printf("ERROR: failed to get function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to get function")
	}
	if fn == nil {
		return detail(c, http.StatusNotFound, "Function not found")
	}
	return c.JSON(http.StatusOK, fn)
}

// CreateFunction adds a user-defined function to the catalog.
// POST /api/functions
func (h *Handler) CreateFunction(c echo.Context) error {
	ctx := c.Request().Context()

	var req FunctionCreateRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return detail(c, http.StatusBadRequest, "name is required")
	}
	if req.Category == "" {
		return detail(c, http.StatusBadRequest, "category is required")
	}
	if req.Icon == "" {
		req.Icon = "zap"
	}
	if req.Parameters == nil {
		req.Parameters = json.RawMessage("[]")
	}

	now := time.Now()
	fn := &domain.Function{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		Icon:           req.Icon,
		Category:       req.Category,
		Parameters:     req.Parameters,
		IsEnabled:      true,
		IsSystem:       false,
		Implementation: req.Implementation,
		CreatedAt:      now,
		UpdatedAt:      now,
		Metadata:       req.Metadata,
	}
	if err := h.functions.Create(ctx, fn); err != nil {
		log.Printf("ERROR: failed to create function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to create function")
	}
	return c.JSON(http.StatusCreated, fn)
}

// UpdateFunction applies a partial update to a catalog entry.
// PUT /api/functions/:function_id
func (h *Handler) UpdateFunction(c echo.Context) error {
	ctx := c.Request().Context()
	functionID := c.Param("function_id")

	var req FunctionUpdateRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	fn, err := h.functions.Update(ctx, functionID, store.FunctionUpdate{
		Name:           req.Name,
		Description:    req.Description,
		Icon:           req.Icon,
		Category:       req.Category,
		Parameters:     req.Parameters,
		IsEnabled:      req.IsEnabled,
		Implementation: req.Implementation,
		Metadata:       req.Metadata,
	})
	if err != nil {
		log.Printf("ERROR: failed to update function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to update function")
	}
	if fn == nil {
		return detail(c, http.StatusNotFound, "Function not found")
	}
	return c.JSON(http.StatusOK, fn)
}

// ToggleFunction flips a function's enabled flag.
// POST /api/functions/:function_id/toggle
func (h *Handler) ToggleFunction(c echo.Context) error {
	ctx := c.Request().Context()
	functionID := c.Param("function_id")

	fn, err := h.functions.Get(ctx, functionID)
	if err != nil {
		log.Printf("ERROR: failed to get function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to toggle function")
	}
	if fn == nil {
		return detail(c, http.StatusNotFound, "Function not found")
	}

	enabled := !fn.IsEnabled
	updated, err := h.functions.Update(ctx, functionID, store.FunctionUpdate{IsEnabled: &enabled})
	if err != nil {
		log.Printf("ERROR: failed to toggle function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to toggle function")
	}
	if updated == nil {
		return detail(c, http.StatusNotFound, "Function not found")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteFunction removes a user-defined function. System functions are
// refused with 400.
// DELETE /api/functions/:function_id
func (h *Handler) DeleteFunction(c echo.Context) error {
	ctx := c.Request().Context()
	functionID := c.Param("function_id")

	found, err := h.functions.Delete(ctx, functionID)
	if errors.Is(err, functions.ErrBlocked) {
		return detail(c, http.StatusBadRequest, "System functions cannot be deleted")
	}
	if err != nil {
		log.Printf("ERROR: failed to delete function: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to delete function")
	}
	if !found {
		return detail(c, http.StatusNotFound, "Function not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":     "Function deleted",
		"function_id": functionID,
	})
}

// ExecuteFunction runs a function and returns the result payload as-is.
// POST /api/functions/:function_id/execute
func (h *Handler) ExecuteFunction(c echo.Context) error {
	ctx := c.Request().Context()
	functionID := c.Param("function_id")

	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	result := h.functions.Execute(ctx, functionID, req.Params)
	return c.JSON(http.StatusOK, result)
}
