// Package cart holds the in-progress sale: a set of heterogeneous line items
// (products, pending services, extras) and the totals derived from them.
// It performs no I/O; callers persist a Cart through a store.
package cart

import (
	"time"

	"petzap/internal/apierror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType classifies a cart line.
type ItemType string

const (
	TypeProduct      ItemType = "product"
	TypeGrooming     ItemType = "service_banho"
	TypeHotel        ItemType = "service_hotel"
	TypeConsultation ItemType = "service_consulta"
	TypeExtra        ItemType = "extra"
)

// IsService reports whether the line settles a scheduled service record.
func (t ItemType) IsService() bool {
	return t == TypeGrooming || t == TypeHotel || t == TypeConsultation
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeProduct, TypeGrooming, TypeHotel, TypeConsultation, TypeExtra:
		return true
	}
	return false
}

// Item is one cart line. TotalPrice is derived; call recompute after any input changes.
type Item struct {
	ID             string          `json:"id"`
	Type           ItemType        `json:"type"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CoveredByPlan  bool            `json:"covered_by_plan"`
	SourceID       *uuid.UUID      `json:"source_id,omitempty"`
	PetID          *uuid.UUID      `json:"pet_id,omitempty"`
	PetName        string          `json:"pet_name,omitempty"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	ServiceStatus  string          `json:"service_status,omitempty"`
}

// Gross is unit price times quantity, before any discount.
func (i *Item) Gross() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *Item) recompute() {
	if i.CoveredByPlan {
		i.DiscountAmount = decimal.Zero
		i.TotalPrice = decimal.Zero
		return
	}
	i.DiscountAmount = clamp(i.DiscountAmount, decimal.Zero, i.Gross())
	i.TotalPrice = i.Gross().Sub(i.DiscountAmount)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Cart is the transient state of one sale being assembled at the counter.
type Cart struct {
	ID         uuid.UUID  `json:"id"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	PetID      *uuid.UUID `json:"pet_id,omitempty"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Items      []Item     `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func New() *Cart {
	now := time.Now()
	return &Cart{ID: uuid.New(), Items: []Item{}, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) find(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Item returns a copy of the line with the given id.
func (c *Cart) Item(id string) (Item, bool) {
	if i := c.find(id); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// Add appends item after validating it and recomputing its total.
// Service lines must reference their source record.
func (c *Cart) Add(item Item) (Item, error) {
	if !item.Type.Valid() {
		return Item{}, apierror.Validation("tipo de item inválido")
	}
	if item.Quantity < 1 {
		return Item{}, apierror.Validation("quantidade deve ser no mínimo 1")
	}
	if item.UnitPrice.IsNegative() {
		return Item{}, apierror.Validation("preço unitário não pode ser negativo")
	}
	if item.Type.IsService() && item.SourceID == nil {
		return Item{}, apierror.Validation("item de serviço sem registro de origem")
	}
	if item.Type == TypeProduct && item.ProductID == nil {
		return Item{}, apierror.Validation("item de produto sem produto")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if c.find(item.ID) >= 0 {
		return Item{}, apierror.Conflict("item já está no carrinho")
	}
	item.recompute()
	c.Items = append(c.Items, item)
	c.touch()
	return item, nil
}

// Remove drops a product or extra line. Unknown ids are ignored.
func (c *Cart) Remove(id string) error {
	i := c.find(id)
	if i < 0 {
		return nil
	}
	if c.Items[i].Type.IsService() {
		return apierror.Precondition("serviços só saem do carrinho ao trocar o cliente ou pet")
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return nil
}

// UpdateQuantity sets the quantity of a product or extra line. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, qty int) error {
	if qty < 1 {
		return apierror.Validation("quantidade deve ser no mínimo 1")
	}
	i := c.find(id)
	if i < 0 {
		return nil
	}
	if c.Items[i].Type.IsService() {
		return apierror.Precondition("a quantidade de um serviço é definida pelo agendamento")
	}
	c.Items[i].Quantity = qty
	c.Items[i].recompute()
	c.touch()
	return nil
}

// ApplyDiscount sets a line discount, clamped to [0, gross]. Plan-covered lines
// keep a zero discount. Unknown ids are ignored.
func (c *Cart) ApplyDiscount(id string, amount decimal.Decimal) error {
	i := c.find(id)
	if i < 0 || c.Items[i].CoveredByPlan {
		return nil
	}
	c.Items[i].DiscountAmount = amount
	c.Items[i].recompute()
	c.touch()
	return nil
}

// SelectClientPet switches the customer. Service lines belong to the previous
// selection and are dropped; products and extras stay.
func (c *Cart) SelectClientPet(clientID, petID *uuid.UUID) {
	c.ClientID = clientID
	c.PetID = petID
	c.ClearServices()
}

// ClearServices removes every service line.
func (c *Cart) ClearServices() {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if !it.Type.IsService() {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.touch()
}

// Services returns the service lines in cart order.
func (c *Cart) Services() []Item {
	var out []Item
	for _, it := range c.Items {
		if it.Type.IsService() {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) touch() { c.UpdatedAt = time.Now() }
