// AngelaMos | 2026
// entity.go

package stock

import (
	"time"
)

type Product struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Quantity  float64   `db:"quantity"`
	Unit      string    `db:"unit"`
	UpdatedAt time.Time `db:"updated_at"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

// IsResolution reports whether s is a status an admin may resolve to.
func (s RequestStatus) IsResolution() bool {
	return s == RequestApproved || s == RequestRejected
}

// PurchaseRequest asks the administration to buy a product. Cost and the
// stock increment are applied once, on approval.
type PurchaseRequest struct {
	ID          string        `db:"id"`
	ProductName string        `db:"product_name"`
	Quantity    float64       `db:"quantity"`
	Status      RequestStatus `db:"status"`
	Cost        float64       `db:"cost"`
	CreatedAt   time.Time     `db:"created_at"`
	ResolvedAt  *time.Time    `db:"resolved_at"`
}

func (p *PurchaseRequest) IsPending() bool {
	return p.Status == RequestPending
}

// Line is one product a cook asks to have bought.
type Line struct {
	ProductName string
	Quantity    float64
}
