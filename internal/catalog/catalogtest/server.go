package catalogtest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/pkg/models"
	"github.com/gin-gonic/gin"
)

// Server exposes a Catalog over the catalog REST API
type Server struct {
	*httptest.Server
	Catalog *Catalog

	// Token, when set, is required as a bearer token on every request
	Token string
}

// NewServer starts an HTTP server backed by c. Call Close when done.
func NewServer(c *Catalog) *Server {
	s := &Server{Catalog: c}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL returns the API root to configure a catalog.Client with
func (s *Server) BaseURL() string {
	return s.URL + "/api/v1"
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/v1", s.authenticate)
	api.GET("/categories", s.listCategories)
	api.POST("/categories", s.createCategory)
	api.POST("/products", s.createProduct)
	api.PUT("/products/:id/categories", s.assignCategories)
	api.POST("/products/:id/variants", s.createVariant)

	return r
}

func (s *Server) authenticate(c *gin.Context) {
	if s.Token != "" && c.GetHeader("Authorization") != "Bearer "+s.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cats})
}

func (s *Server) createCategory(c *gin.Context) {
	var req catalog.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id, err := s.Catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"id": id}})
}

func (s *Server) createProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id, err := s.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"id": id}})
}

func (s *Server) assignCategories(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req catalog.AssignCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := s.Catalog.AssignCategories(c.Request.Context(), id, req.CategoryIDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) createVariant(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req catalog.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if _, err := models.ParseOptions(req.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := s.Catalog.CreateVariant(c.Request.Context(), id, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid product id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}
