package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/usecase"
)

type ProductController interface {
	Search(c echo.Context, req models.SearchQuery) (*models.SearchResult, error)
	Create(c echo.Context, req createProductRequest) (createdProduct, error)
	Update(c echo.Context, req updateProductRequest) (*models.Product, error)
	List(c echo.Context, req listRequest) (*models.ProductPage, error)
	Get(c echo.Context, req productRequest) (*models.Product, error)
	Syndications(c echo.Context, req productRequest) ([]models.Syndication, error)
	Health(c echo.Context) error
}

type listRequest struct {
	Page int64 `query:"page" validate:"min=0"`
	Size int64 `query:"size" validate:"min=0,max=100"`
}

type productRequest struct {
	ID string `param:"id" validate:"required"`
}

// createProductRequest reads the form fields at the top level of the body.
// The draft is checked after mapping, so field errors name payload fields.
type createProductRequest struct {
	models.ProductDraft `validate:"-"`
	UserID              string `json:"-" jwt:"sub"`
}

type updateProductRequest struct {
	models.ProductDraft `validate:"-"`
	ID                  string `json:"-" param:"id" validate:"required"`
	UserID              string `json:"-" jwt:"sub"`
}

// createdProduct answers 201.
type createdProduct models.CreatedProduct

func (createdProduct) HTTPStatus() int {
	return http.StatusCreated
}

type productController struct {
	products    usecase.ProductUsecase
	syndication usecase.SyndicationUsecase
}

func NewProductController(products usecase.ProductUsecase, syndication usecase.SyndicationUsecase) ProductController {
	return &productController{
		products:    products,
		syndication: syndication,
	}
}

func (h *productController) Search(c echo.Context, req models.SearchQuery) (*models.SearchResult, error) {
	return h.products.Search(c.Request().Context(), req)
}

func (h *productController) Create(c echo.Context, req createProductRequest) (createdProduct, error) {
	payload := models.FormToProduct(req.ProductDraft)
	// the author is whoever holds the token, never the body
	payload.CreatedBy = req.UserID
	created, err := h.products.Create(c.Request().Context(), payload)
	if err != nil {
		return createdProduct{}, err
	}
	return createdProduct(*created), nil
}

func (h *productController) Update(c echo.Context, req updateProductRequest) (*models.Product, error) {
	return h.products.Update(c.Request().Context(), req.ID, req.UserID, models.FormToProduct(req.ProductDraft))
}

func (h *productController) List(c echo.Context, req listRequest) (*models.ProductPage, error) {
	return h.products.List(c.Request().Context(), req.Page, req.Size)
}

func (h *productController) Get(c echo.Context, req productRequest) (*models.Product, error) {
	return h.products.Get(c.Request().Context(), req.ID)
}

func (h *productController) Syndications(c echo.Context, req productRequest) ([]models.Syndication, error) {
	return h.syndication.ListByProduct(c.Request().Context(), req.ID)
}

func (h *productController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "product-hub",
	})
}
