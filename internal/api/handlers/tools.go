package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/store"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

// Library is the set of tools one user can see: their custom tools, newest
// first, followed by the built-in catalog.
type Library struct {
	catalog *catalog.Catalog
	prefs   *store.Prefs
}

func NewLibrary(c *catalog.Catalog, prefs *store.Prefs) *Library {
	return &Library{catalog: c, prefs: prefs}
}

// All returns every tool visible to userID with IsFavorite set and icons
// normalized.
func (l *Library) All(ctx context.Context, userID string) ([]catalog.Tool, error) {
	custom, err := l.prefs.CustomTools(ctx, userID)
	if err != nil {
		return nil, err
	}
	favorites, err := l.prefs.Favorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	builtin := l.catalog.Tools()
	all := make([]catalog.Tool, 0, len(custom)+len(builtin))
	all = append(all, custom...)
	all = append(all, builtin...)
	for i := range all {
		all[i].IsFavorite = favorites[all[i].ID]
		all[i].Icon = catalog.Icon(all[i].Icon)
	}
	return all, nil
}

// Get finds one tool visible to userID.
func (l *Library) Get(ctx context.Context, userID, id string) (catalog.Tool, error) {
	all, err := l.All(ctx, userID)
	if err != nil {
		return catalog.Tool{}, err
	}
	t, ok := catalog.Find(all, id)
	if !ok {
		return catalog.Tool{}, catalog.ErrNotFound
	}
	return t, nil
}

type ToolHandler struct {
	library *Library
	catalog *catalog.Catalog
	prefs   *store.Prefs
}

func NewToolHandler(library *Library, c *catalog.Catalog, prefs *store.Prefs) *ToolHandler {
	return &ToolHandler{library: library, catalog: c, prefs: prefs}
}

// ListCategories handles GET /v1/categories
func (h *ToolHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
}

// ListTools handles GET /v1/tools
func (h *ToolHandler) ListTools(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	all, err := h.library.All(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list tools"})
		return
	}

	category := c.DefaultQuery("category", catalog.CategoryAll)
	tools := catalog.Filter(all, c.Query("q"), category)
	if fav := c.Query("favorites"); fav == "1" || fav == "true" {
		kept := tools[:0]
		for _, t := range tools {
			if t.IsFavorite {
				kept = append(kept, t)
			}
		}
		tools = kept
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

// GetTool handles GET /v1/tools/:id
func (h *ToolHandler) GetTool(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	t, err := h.library.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "tool not found", Code: "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to load tool"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// AddTool handles POST /v1/tools
func (h *ToolHandler) AddTool(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req types.AddToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "name and url are required", Code: "invalid_request"})
		return
	}
	t, err := catalog.NewCustomTool(req.Name, req.URL, req.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error(), Code: "invalid_tool"})
		return
	}
	if err := h.prefs.AddCustomTool(c.Request.Context(), userID, t); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to save tool"})
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ToggleFavorite handles POST /v1/tools/:id/favorite
func (h *ToolHandler) ToggleFavorite(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id := c.Param("id")

	if _, err := h.library.Get(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "tool not found", Code: "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to load tool"})
		return
	}

	on, err := h.prefs.ToggleFavorite(c.Request.Context(), userID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to save favorite"})
		return
	}
	c.JSON(http.StatusOK, types.FavoriteResponse{ID: id, Favorite: on})
}
