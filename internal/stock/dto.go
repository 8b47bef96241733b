// AngelaMos | 2026
// dto.go

package stock

import (
	"time"
)

type RequestLine struct {
	ProductName string   `json:"product_name" validate:"required,max=200"`
	Quantity    *float64 `json:"quantity"     validate:"required,gt=0"`
}

type CreateRequestsRequest struct {
	Items []RequestLine `json:"items" validate:"required,min=1,max=100,dive"`
}

type ResolvePurchaseRequest struct {
	Status string   `json:"status" validate:"required,oneof=Approved Rejected"`
	Cost   *float64 `json:"cost"   validate:"omitempty,gte=0"`
}

type UpdateStockRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PurchaseRequestResponse struct {
	ID          string        `json:"id"`
	ProductName string        `json:"product_name"`
	Quantity    float64       `json:"quantity"`
	Status      RequestStatus `json:"status"`
	Cost        float64       `json:"cost"`
	CreatedAt   time.Time     `json:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Unit:      p.Unit,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

func ToPurchaseRequestResponse(p *PurchaseRequest) PurchaseRequestResponse {
	return PurchaseRequestResponse{
		ID:          p.ID,
		ProductName: p.ProductName,
		Quantity:    p.Quantity,
		Status:      p.Status,
		Cost:        p.Cost,
		CreatedAt:   p.CreatedAt,
		ResolvedAt:  p.ResolvedAt,
	}
}

func ToPurchaseRequestResponseList(reqs []PurchaseRequest) []PurchaseRequestResponse {
	out := make([]PurchaseRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, ToPurchaseRequestResponse(&reqs[i]))
	}
	return out
}
