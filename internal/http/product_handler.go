package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
	"github.com/tuanvumaihuynh/nfcstore/pkg/ptr"
)

type productSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	NFCTagID      string    `json:"nfc_tag_id"`
	Image         *string   `json:"image"`
}

type productResponse struct {
	productSummaryResponse
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// productRequest is the create/update body. Nil fields were not sent.
type productRequest struct {
	Name          *string          `json:"name"`
	Price         *priceInput `json:"price"`
	StockQuantity *int        `json:"stock_quantity"`
	NFCTagID      *string     `json:"nfc_tag_id"`
	Description   *string     `json:"description"`

	image []byte
}

const invalidPriceMsg = "A valid number is required."

// priceInput accepts a JSON number or numeric string and reports anything
// else as a price field error.
type priceInput decimal.Decimal

func (p *priceInput) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return apperr.FieldInvalid("price", invalidPriceMsg).WrapParent(err)
	}
	*p = priceInput(d)
	return nil
}

func (p *priceInput) value() *decimal.Decimal {
	if p == nil {
		return nil
	}
	d := decimal.Decimal(*p)
	return &d
}

type updateStockRequest struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

type productHandler struct {
	s          *Service
	productSvc service.ProductService
}

func newProductHandler(s *Service, productSvc service.ProductService) *productHandler {
	return &productHandler{
		s:          s,
		productSvc: productSvc,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request, _ *model.User) {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		h.s.writeError(w, r, fmt.Errorf("product service list all products: %w", err))
		return
	}

	items := make([]productSummaryResponse, 0, len(products))
	for _, p := range products {
		items = append(items, h.summary(p))
	}

	h.s.writeJSON(w, r, http.StatusOK, items)
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusOK, h.detail(product))
}

func (h *productHandler) LookupNFC(w http.ResponseWriter, r *http.Request, _ *model.User) {
	product, err := h.productSvc.LookupByNFCTag(r.Context(), r.URL.Query().Get("nfc_tag_id"))
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusOK, h.detail(product))
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	req, err := h.decodeProduct(w, r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:          ptr.ValueOr(req.Name, ""),
		Price:         req.Price.value(),
		StockQuantity: req.StockQuantity,
		NFCTagID:      ptr.ValueOr(req.NFCTagID, ""),
		Description:   ptr.ValueOr(req.Description, ""),
		Image:         req.image,
	})
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusCreated, h.detail(product))
}

func (h *productHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	h.updateProduct(w, r, false)
}

func (h *productHandler) PatchProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	h.updateProduct(w, r, true)
}

func (h *productHandler) updateProduct(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	req, err := h.decodeProduct(w, r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Name:          req.Name,
		Price:         req.Price.value(),
		StockQuantity: req.StockQuantity,
		NFCTagID:      req.NFCTagID,
		Description:   req.Description,
		Image:         req.image,
		Partial:       partial,
	})
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusOK, h.detail(product))
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *productHandler) UpdateStock(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	var req updateStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.UpdateStock(r.Context(), id, service.UpdateStockParams{
		Quantity: req.Quantity,
		Delta:    req.Delta,
	})
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusOK, h.detail(product))
}

func (h *productHandler) summary(p model.Product) productSummaryResponse {
	res := productSummaryResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		NFCTagID:      p.NFCTagID,
	}
	if p.Image != "" {
		res.Image = ptr.New(h.s.media.URL(p.Image))
	}
	return res
}

func (h *productHandler) detail(p model.Product) productResponse {
	return productResponse{
		productSummaryResponse: h.summary(p),
		Description:            p.Description,
		CreatedAt:              p.CreatedAt,
	}
}

// decodeProduct reads a JSON, urlencoded or multipart product body. Only
// multipart bodies can carry an image.
func (h *productHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (productRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		return h.decodeProductMultipart(w, r)
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
		if err := r.ParseForm(); err != nil {
			return productRequest{}, apperr.BadRequestErr.WithMsg("malformed form body").WrapParent(err)
		}
		return productFromForm(formValues(r.PostForm))
	default:
		var req productRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return productRequest{}, err
		}
		return req, nil
	}
}

func (h *productHandler) decodeProductMultipart(w http.ResponseWriter, r *http.Request) (productRequest, error) {
	maxBytes := h.s.cfg.Media.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+maxJSONBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return productRequest{}, apperr.FieldInvalid("image", fmt.Sprintf("Ensure the file is at most %d bytes.", maxBytes)).WrapParent(err)
		}
		return productRequest{}, apperr.BadRequestErr.WithMsg("malformed multipart body").WrapParent(err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	req, err := productFromForm(formValues(r.MultipartForm.Value))
	if err != nil {
		return productRequest{}, err
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		content, err := readUpload(files[0], maxBytes)
		if err != nil {
			return productRequest{}, err
		}
		req.image = content
	}

	return req, nil
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, apperr.FieldInvalid("image", fmt.Sprintf("Ensure the file is at most %d bytes.", maxBytes))
	}
	if fh.Size == 0 {
		return nil, apperr.FieldInvalid("image", "The submitted file is empty.")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close() //nolint:errcheck

	content, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return content, nil
}

// formValues keeps the first value of every submitted field.
func formValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func productFromForm(form map[string]string) (productRequest, error) {
	var req productRequest

	if v, ok := form["name"]; ok {
		req.Name = &v
	}
	if v, ok := form["nfc_tag_id"]; ok {
		req.NFCTagID = &v
	}
	if v, ok := form["description"]; ok {
		req.Description = &v
	}
	if v, ok := form["price"]; ok && strings.TrimSpace(v) != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return productRequest{}, apperr.FieldInvalid("price", invalidPriceMsg).WrapParent(err)
		}
		req.Price = (*priceInput)(&d)
	}
	if v, ok := form["stock_quantity"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return productRequest{}, apperr.FieldInvalid("stock_quantity", "A valid integer is required.").WrapParent(err)
		}
		req.StockQuantity = &n
	}

	return req, nil
}
