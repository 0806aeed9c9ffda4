package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chrisdamba/menusync/internal/cart"
	"github.com/chrisdamba/menusync/internal/customize"
	"github.com/chrisdamba/menusync/internal/favorites"
	"github.com/chrisdamba/menusync/internal/menu"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/modifiers"
	"github.com/chrisdamba/menusync/internal/pricing"
	"github.com/chrisdamba/menusync/internal/replica"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/chrisdamba/menusync/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var errItemNotFound = errors.New("item not found")

type Handler struct {
	storeID  string
	catalog  repositories.CatalogRepository
	accessor *modifiers.Accessor
	session  *session.Session
}

func NewHandler(storeID string, catalog repositories.CatalogRepository, sess *session.Session) *Handler {
	return &Handler{
		storeID:  storeID,
		catalog:  catalog,
		accessor: modifiers.NewAccessor(catalog),
		session:  sess,
	}
}

// lineRequest describes a configured item; the server prices it from the catalog.
type lineRequest struct {
	ItemID     string                  `json:"itemId" binding:"required"`
	Quantity   int                     `json:"quantity"`
	Note       string                  `json:"note"`
	Selections []models.GroupSelection `json:"selections"`
}

type cartResponse struct {
	Lines       []models.CartLine `json:"lines"`
	TotalCount  int               `json:"totalCount"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Sync        string            `json:"sync"`
}

type customizationResponse struct {
	Item      models.Item             `json:"item"`
	Groups    []models.EffectiveGroup `json:"groups"`
	UnitPrice decimal.Decimal         `json:"unitPrice"`
	CanSubmit bool                    `json:"canSubmit"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errItemNotFound),
		errors.Is(err, favorites.ErrNotFound),
		errors.Is(err, session.ErrNoSuchOrder):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidLine),
		errors.Is(err, favorites.ErrInvalidEntry),
		errors.Is(err, customize.ErrIncomplete),
		errors.Is(err, customize.ErrInvalidQuantity),
		errors.Is(err, customize.ErrNoteTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrSignedOut):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrUnverified):
		return http.StatusForbidden
	case errors.Is(err, session.ErrStoreClosed), errors.Is(err, session.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, replica.ErrNotDurable):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *Handler) cartView() cartResponse {
	engine := h.session.Cart()
	lines := engine.Lines()
	return cartResponse{
		Lines:       lines,
		TotalCount:  pricing.TotalCount(lines),
		TotalAmount: pricing.CartTotal(lines),
		Sync:        engine.State().String(),
	}
}

func (h *Handler) loadItem(c *gin.Context, itemID string) (*models.Item, []models.EffectiveGroup, error) {
	ctx := c.Request.Context()
	item, err := h.catalog.GetItem(ctx, h.storeID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || !item.Active {
		return nil, nil, errItemNotFound
	}
	if !item.IsCustomizable() {
		return item, []models.EffectiveGroup{}, nil
	}
	groups, err := h.accessor.ItemGroups(ctx, h.storeID, *item)
	if err != nil {
		return nil, nil, err
	}
	return item, groups, nil
}

// draftFor builds a draft from a request. Option ids the item no longer offers are
// dropped; the admission gate then decides whether the line can be committed.
func (h *Handler) draftFor(c *gin.Context, req lineRequest) (*customize.Draft, error) {
	item, groups, err := h.loadItem(c, req.ItemID)
	if err != nil {
		return nil, err
	}
	d := customize.FromLine(*item, groups, models.CartLine{Selections: req.Selections})
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if err := d.SetQuantity(quantity); err != nil {
		return nil, err
	}
	if err := d.SetNote(req.Note); err != nil {
		return nil, err
	}
	return d, nil
}

func (h *Handler) lineFrom(c *gin.Context) (models.CartLine, bool) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return models.CartLine{}, false
	}
	d, err := h.draftFor(c, req)
	if err != nil {
		fail(c, err)
		return models.CartLine{}, false
	}
	line, err := d.Line()
	if err != nil {
		fail(c, err)
		return models.CartLine{}, false
	}
	return line, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return index, true
}

// GetMenu lists active categories with their active items. ?q= filters items by name.
func (h *Handler) GetMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		sections, err := menu.Load(c.Request.Context(), h.catalog, h.storeID, c.Query("q"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sections": sections})
	}
}

func (h *Handler) GetCustomization() gin.HandlerFunc {
	return func(c *gin.Context) {
		item, groups, err := h.loadItem(c, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		d := customize.New(*item, groups)
		c.JSON(http.StatusOK, customizationResponse{
			Item:      *item,
			Groups:    groups,
			UnitPrice: d.UnitPrice(),
			CanSubmit: d.CanSubmit(),
		})
	}
}

func (h *Handler) SignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id models.Identity
		if err := c.ShouldBindJSON(&id); err != nil || !id.SignedIn() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
			return
		}
		if err := h.session.SignIn(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"uid": id.UserID, "verified": id.Verified})
	}
}

func (h *Handler) SignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.session.SignOut()
		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.cartView())
	}
}

func (h *Handler) AddLine() gin.HandlerFunc {
	return func(c *gin.Context) {
		line, ok := h.lineFrom(c)
		if !ok {
			return
		}
		if err := h.session.Cart().Add(line); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, h.cartView())
	}
}

func (h *Handler) UpdateLine() gin.HandlerFunc {
	return func(c *gin.Context) {
		index, ok := indexParam(c)
		if !ok {
			return
		}
		line, ok := h.lineFrom(c)
		if !ok {
			return
		}
		if err := h.session.Cart().Update(index, line); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, h.cartView())
	}
}

func (h *Handler) RemoveLine() gin.HandlerFunc {
	return func(c *gin.Context) {
		index, ok := indexParam(c)
		if !ok {
			return
		}
		if err := h.session.Cart().Remove(index); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, h.cartView())
	}
}

func (h *Handler) ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.session.Cart().Clear(); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, h.cartView())
	}
}

func (h *Handler) GetFavorites() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"favorites": h.session.Favorites().Entries()})
	}
}

// SaveFavorite stores the configuration in the body as the item's favorite,
// replacing any earlier one.
func (h *Handler) SaveFavorite() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		d, err := h.draftFor(c, req)
		if err != nil {
			fail(c, err)
			return
		}
		if err := h.session.Favorites().Upsert(d.Favorite()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": h.session.Favorites().Entries()})
	}
}

func (h *Handler) RemoveFavorite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.session.Favorites().Remove(c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": h.session.Favorites().Entries()})
	}
}

func (h *Handler) Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.session.Checkout(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func (h *Handler) GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.session.Orders(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func (h *Handler) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.session.Order(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
