package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"printforge/internal/lifecycle"
	"printforge/internal/models"
	"printforge/internal/quote"
	"printforge/internal/store"
	"printforge/internal/worker"
)

// QuoteService is the pipeline contract the handler depends on.
type QuoteService interface {
	Quote(ctx context.Context, file *models.UploadedFile, specialRequests string) (*models.Quote, error)
}

// Handler wires HTTP routes to the quote pipeline and the order store.
type Handler struct {
	quotes    QuoteService
	orders    *store.Store
	tracker   *lifecycle.Tracker
	maxUpload int64
}

const defaultMaxUploadBytes = 50 << 20 // 50 MB

// NewHandler constructs a Handler instance.
func NewHandler(quotes QuoteService, orders *store.Store, tracker *lifecycle.Tracker, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handler{
		quotes:    quotes,
		orders:    orders,
		tracker:   tracker,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.health)
	api.POST("/analyze", h.analyzeModel)
	api.POST("/orders", h.submitOrder)
	api.GET("/orders", h.listOrders)
	api.PUT("/orders/:id/status", h.updateOrderStatus)
	api.GET("/dashboard", h.dashboard)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "3D Printing Quote Generator API"})
}

// modelFileTokens are the accepted 3D model formats. Both the file
// extension and the declared media type must name one of them.
var modelFileTokens = []string{"stl", "obj", "3mf"}

func matchesModelType(s string) bool {
	s = strings.ToLower(s)
	for _, token := range modelFileTokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

func (h *Handler) analyzeModel(c *gin.Context) {
	file, err := c.FormFile("model")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	declaredType := file.Header.Get("Content-Type")
	if !matchesModelType(ext) || !matchesModelType(declaredType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only 3D model files are allowed"})
		return
	}

	upload := &models.UploadedFile{
		Name:      filepath.Base(file.Filename),
		SizeBytes: file.Size,
		Extension: ext,
	}
	result, err := h.quotes.Quote(c.Request.Context(), upload, c.PostForm("specialRequests"))
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		case errors.Is(err, worker.ErrDispatcherBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze model"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) submitOrder(c *gin.Context) {
	var draft models.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(draft.CustomerName) == "" || strings.TrimSpace(draft.FileName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_name and file_name are required"})
		return
	}
	order := h.orders.Insert(c.Request.Context(), draft)
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"order_id": order.ID,
		"message":  "Order submitted successfully",
	})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders := h.orders.List()
	if status := c.Query("status"); status != "" {
		filtered := make([]models.Order, 0, len(orders))
		for _, order := range orders {
			if order.Status == models.Status(status) {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	// An unparseable id can never name an order, so it reads as unknown.
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	var req struct {
		Status models.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	order, err := h.tracker.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, store.ErrInvalidStatus), errors.Is(err, lifecycle.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (h *Handler) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":         h.tracker.Stats(),
		"recent_orders": h.tracker.RecentOrders(),
	})
}
