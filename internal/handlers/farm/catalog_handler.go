package farm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
	"github.com/stivenPRO500/siembrasApp/internal/services"
)

type CatalogHandler struct {
	products *farmrepo.ProductRepository
	uploads  *services.UploadService
}

func NewCatalogHandler(products *farmrepo.ProductRepository, uploads *services.UploadService) *CatalogHandler {
	return &CatalogHandler{products: products, uploads: uploads}
}

func (h *CatalogHandler) Create(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product type"})
		return
	}

	product, err := h.products.Create(c.Request.Context(), &models.Product{
		Name:         req.Name,
		Type:         req.Type,
		Price:        req.Price,
		Presentation: req.Presentation,
		CupsPerUnit:  req.CupsPerUnit,
		PoundsPerBag: req.PoundsPerBag,
		Note:         req.Note,
		OwnerID:      &ownerID,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) List(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	products, err := h.products.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, product.OwnerID) {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != nil && !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product type"})
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, product.OwnerID) {
		return
	}

	updated, err := h.products.Update(c.Request.Context(), id, &req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadImage attaches a photo to a catalog product. Multipart field
// "image".
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, product.OwnerID) {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}

	url, err := h.uploads.SaveImage(c.Request.Context(), file, "catalog")
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if err := h.products.SetImageURL(c.Request.Context(), id, url); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "image_url": url})
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, product.OwnerID) {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
