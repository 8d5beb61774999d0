package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inventia-erp/inventia/internal/platform/httpx"
)

// Handler manages catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Post("/", h.createSupplier)
		r.Get("/{id}", h.getSupplier)
		r.Put("/{id}", h.updateSupplier)
		r.Delete("/{id}", h.deleteSupplier)
	})
	r.Route("/raw-materials", func(r chi.Router) {
		r.Get("/", h.listRawMaterials)
		r.Post("/", h.createRawMaterial)
		r.Get("/{id}", h.getRawMaterial)
		r.Put("/{id}", h.updateRawMaterial)
		r.Delete("/{id}", h.deleteRawMaterial)
	})
	r.Route("/resale-products", func(r chi.Router) {
		r.Get("/", h.listResaleProducts)
		r.Post("/", h.createResaleProduct)
		r.Get("/{id}", h.getResaleProduct)
		r.Put("/{id}", h.updateResaleProduct)
		r.Delete("/{id}", h.deleteResaleProduct)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
		r.Get("/{id}/variants", h.listVariants)
		r.Post("/{id}/variants", h.createVariant)
		r.Get("/{id}/bom", h.listBOMLines)
		r.Post("/{id}/bom", h.addBOMLine)
	})
	r.Route("/variants/{id}", func(r chi.Router) {
		r.Get("/", h.getVariant)
		r.Put("/", h.updateVariant)
		r.Delete("/", h.deleteVariant)
	})
	r.Delete("/bom-lines/{id}", h.deleteBOMLine)
}

func urlID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

type supplierForm struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var form supplierForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), Supplier{Name: form.Name, Contact: form.Contact})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.GetSupplier(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var form supplierForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	supplier, err := h.service.UpdateSupplier(r.Context(), Supplier{ID: urlID(r), Name: form.Name, Contact: form.Contact})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSupplier(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rawMaterialForm struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
	Unit        string  `json:"unit"`
	OnHand      int64   `json:"on_hand" validate:"gte=0"`
	SupplierID  int64   `json:"supplier_id" validate:"required,gt=0"`
}

func (f rawMaterialForm) toDomain(id int64) RawMaterial {
	return RawMaterial{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		UnitCost:    f.UnitCost,
		Unit:        f.Unit,
		OnHand:      f.OnHand,
		SupplierID:  f.SupplierID,
	}
}

func (h *Handler) createRawMaterial(w http.ResponseWriter, r *http.Request) {
	var form rawMaterialForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	material, err := h.service.CreateRawMaterial(r.Context(), form.toDomain(0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, material)
}

func (h *Handler) listRawMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListRawMaterials(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, materials)
}

func (h *Handler) getRawMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := h.service.GetRawMaterial(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

func (h *Handler) updateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var form rawMaterialForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	material, err := h.service.UpdateRawMaterial(r.Context(), form.toDomain(urlID(r)))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

func (h *Handler) deleteRawMaterial(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRawMaterial(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resaleProductForm struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	PurchaseCost float64 `json:"purchase_cost" validate:"gte=0"`
	SalePrice    float64 `json:"sale_price" validate:"gte=0"`
	OnHand       int64   `json:"on_hand" validate:"gte=0"`
	SupplierID   int64   `json:"supplier_id" validate:"required,gt=0"`
}

func (f resaleProductForm) toDomain(id int64) ResaleProduct {
	return ResaleProduct{
		ID:           id,
		Name:         f.Name,
		Description:  f.Description,
		PurchaseCost: f.PurchaseCost,
		SalePrice:    f.SalePrice,
		OnHand:       f.OnHand,
		SupplierID:   f.SupplierID,
	}
}

func (h *Handler) createResaleProduct(w http.ResponseWriter, r *http.Request) {
	var form resaleProductForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	product, err := h.service.CreateResaleProduct(r.Context(), form.toDomain(0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) listResaleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListResaleProducts(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) getResaleProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetResaleProduct(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) updateResaleProduct(w http.ResponseWriter, r *http.Request) {
	var form resaleProductForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	product, err := h.service.UpdateResaleProduct(r.Context(), form.toDomain(urlID(r)))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteResaleProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteResaleProduct(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type productForm struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	SalePrice   float64 `json:"sale_price" validate:"gte=0"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	product, err := h.service.CreateProduct(r.Context(), ManufacturedProduct{
		Name:        form.Name,
		Description: form.Description,
		SalePrice:   form.SalePrice,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), ManufacturedProduct{
		ID:          urlID(r),
		Name:        form.Name,
		Description: form.Description,
		SalePrice:   form.SalePrice,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type variantForm struct {
	Size   string `json:"size"`
	Color  string `json:"color"`
	OnHand int64  `json:"on_hand" validate:"gte=0"`
}

func (h *Handler) createVariant(w http.ResponseWriter, r *http.Request) {
	var form variantForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	variant, err := h.service.CreateVariant(r.Context(), Variant{
		ProductID: urlID(r),
		Size:      form.Size,
		Color:     form.Color,
		OnHand:    form.OnHand,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, variant)
}

func (h *Handler) listVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.service.ListVariants(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, variants)
}

func (h *Handler) getVariant(w http.ResponseWriter, r *http.Request) {
	variant, err := h.service.GetVariant(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, variant)
}

func (h *Handler) updateVariant(w http.ResponseWriter, r *http.Request) {
	var form variantForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	variant, err := h.service.UpdateVariant(r.Context(), Variant{
		ID:    urlID(r),
		Size:  form.Size,
		Color: form.Color,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, variant)
}

func (h *Handler) deleteVariant(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVariant(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bomLineForm struct {
	MaterialID int64   `json:"material_id" validate:"required,gt=0"`
	QtyPerUnit float64 `json:"qty_per_unit" validate:"required,gt=0"`
}

type bomLineResponse struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	MaterialID   int64   `json:"material_id"`
	MaterialName string  `json:"material_name,omitempty"`
	QtyPerUnit   float64 `json:"qty_per_unit"`
}

func toBOMLineResponse(line BOMLine) bomLineResponse {
	return bomLineResponse{
		ID:           line.ID,
		ProductID:    line.ProductID,
		MaterialID:   line.MaterialID,
		MaterialName: line.MaterialName,
		QtyPerUnit:   line.QtyPerUnit,
	}
}

func (h *Handler) addBOMLine(w http.ResponseWriter, r *http.Request) {
	var form bomLineForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	line, err := h.service.AddBOMLine(r.Context(), BOMLine{
		ProductID:  urlID(r),
		MaterialID: form.MaterialID,
		QtyPerUnit: form.QtyPerUnit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBOMLineResponse(line))
}

func (h *Handler) listBOMLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.ListBOMLines(r.Context(), urlID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]bomLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, toBOMLineResponse(line))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteBOMLine(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBOMLine(r.Context(), urlID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
