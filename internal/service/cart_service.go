package service

import (
	"context"
	"errors"
	"strings"

	"petzap/internal/apierror"
	"petzap/internal/cart"
	"petzap/internal/config"
	"petzap/internal/dto"
	"petzap/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CartService keeps carts server-side between requests and applies the cart
// engine operations to them. Every mutating call loads, changes and saves.
type CartService interface {
	Create(ctx context.Context) (*dto.CartResponse, error)
	Get(ctx context.Context, cartID uuid.UUID) (*dto.CartResponse, error)
	Discard(ctx context.Context, cartID uuid.UUID) error

	// SelectClientPet drops every service line and reloads the pending
	// services of the new pet. A resolver failure still returns the cart.
	SelectClientPet(ctx context.Context, cartID uuid.UUID, req dto.SelectClientRequest) (*dto.CartResponse, error)
	SetEmployee(ctx context.Context, cartID uuid.UUID, req dto.SetEmployeeRequest) (*dto.CartResponse, error)

	AddProduct(ctx context.Context, cartID uuid.UUID, req dto.AddProductRequest) (*dto.CartResponse, error)
	AddExtra(ctx context.Context, cartID uuid.UUID, req dto.AddExtraRequest) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, cartID uuid.UUID, itemID string) (*dto.CartResponse, error)
	UpdateQuantity(ctx context.Context, cartID uuid.UUID, itemID string, req dto.UpdateQuantityRequest) (*dto.CartResponse, error)
	ApplyDiscount(ctx context.Context, cartID uuid.UUID, itemID string, req dto.ApplyDiscountRequest) (*dto.CartResponse, error)
}

type cartService struct {
	store    repository.CartStore
	products repository.ProductRepository
	catalog  repository.CatalogRepository
	resolver PendingServiceResolver
	features config.Features
}

func NewCartService(
	store repository.CartStore,
	products repository.ProductRepository,
	catalog repository.CatalogRepository,
	resolver PendingServiceResolver,
	features config.Features,
) CartService {
	return &cartService{store: store, products: products, catalog: catalog, resolver: resolver, features: features}
}

func (s *cartService) Create(ctx context.Context) (*dto.CartResponse, error) {
	c := cart.New()
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return cartToResponse(c), nil
}

func (s *cartService) Get(ctx context.Context, cartID uuid.UUID) (*dto.CartResponse, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return cartToResponse(c), nil
}

func (s *cartService) Discard(ctx context.Context, cartID uuid.UUID) error {
	if err := s.store.Delete(ctx, cartID); err != nil {
		return apierror.Persistence("falha ao descartar carrinho", err)
	}
	return nil
}

func (s *cartService) SelectClientPet(ctx context.Context, cartID uuid.UUID, req dto.SelectClientRequest) (*dto.CartResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apierror.Validation("client_id inválido")
	}
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return nil, apierror.Validation("pet_id inválido")
	}

	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		if _, err := s.catalog.FindClient(ctx, clientID); err != nil {
			return lookupErr(err, "Cliente não encontrado")
		}
		pet, err := s.catalog.FindPet(ctx, petID)
		if err != nil {
			return lookupErr(err, "Pet não encontrado")
		}
		if pet.ClientID != clientID {
			return apierror.Validation("Pet não pertence ao cliente")
		}
		c.SelectClientPet(&clientID, &petID)

		items, err := s.resolver.Resolve(ctx, clientID, petID)
		if err != nil {
			log.Warn().Err(err).
				Str("cart_id", c.ID.String()).
				Str("pet_id", petID.String()).
				Msg("pending services unavailable, cart kept without them")
			return nil
		}
		for _, it := range items {
			if _, err := c.Add(it); err != nil {
				log.Warn().Err(err).Str("item_id", it.ID).Msg("pending service skipped")
			}
		}
		return nil
	})
}

func (s *cartService) SetEmployee(ctx context.Context, cartID uuid.UUID, req dto.SetEmployeeRequest) (*dto.CartResponse, error) {
	employeeID, err := parseOptionalUUID(req.EmployeeID)
	if err != nil {
		return nil, apierror.Validation("employee_id inválido")
	}
	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		if employeeID != nil {
			e, err := s.catalog.FindEmployee(ctx, *employeeID)
			if err != nil {
				return lookupErr(err, "Funcionário não encontrado")
			}
			if !e.Active {
				return apierror.Precondition("Funcionário inativo")
			}
		}
		c.EmployeeID = employeeID
		return nil
	})
}

// AddProduct prices the line from the catalog. Adding a product already in
// the cart bumps its quantity instead of adding a second line. With stock
// control on, an out-of-stock product is refused; a quantity above the stock
// on hand is still accepted and the sale floors the stock at zero.
func (s *cartService) AddProduct(ctx context.Context, cartID uuid.UUID, req dto.AddProductRequest) (*dto.CartResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id inválido")
	}
	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return lookupErr(err, "Produto não encontrado")
		}
		if !p.Active {
			return apierror.Precondition("Produto inativo não pode ser vendido")
		}
		if s.features.StockEnabled && p.StockQuantity <= 0 {
			return apierror.Precondition("Produto sem estoque")
		}

		lineID := "prod_" + p.ID.String()
		if existing, ok := c.Item(lineID); ok {
			return c.UpdateQuantity(lineID, existing.Quantity+req.Quantity)
		}
		pid := p.ID
		_, err = c.Add(cart.Item{
			ID:             lineID,
			Type:           cart.TypeProduct,
			ProductID:      &pid,
			Description:    p.Name,
			Quantity:       req.Quantity,
			UnitPrice:      p.SalePrice,
			CommissionRate: p.CommissionRate,
		})
		return err
	})
}

func (s *cartService) AddExtra(ctx context.Context, cartID uuid.UUID, req dto.AddExtraRequest) (*dto.CartResponse, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, apierror.Validation("descrição obrigatória")
	}
	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		_, err := c.Add(cart.Item{
			Type:        cart.TypeExtra,
			Description: desc,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
		})
		return err
	})
}

func (s *cartService) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID string) (*dto.CartResponse, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) error { return c.Remove(itemID) })
}

func (s *cartService) UpdateQuantity(ctx context.Context, cartID uuid.UUID, itemID string, req dto.UpdateQuantityRequest) (*dto.CartResponse, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) error { return c.UpdateQuantity(itemID, req.Quantity) })
}

func (s *cartService) ApplyDiscount(ctx context.Context, cartID uuid.UUID, itemID string, req dto.ApplyDiscountRequest) (*dto.CartResponse, error) {
	if req.Amount.IsNegative() {
		req.Amount = decimal.Zero
	}
	return s.mutate(ctx, cartID, func(c *cart.Cart) error { return c.ApplyDiscount(itemID, req.Amount) })
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *cartService) mutate(ctx context.Context, cartID uuid.UUID, fn func(c *cart.Cart) error) (*dto.CartResponse, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return cartToResponse(c), nil
}

func (s *cartService) load(ctx context.Context, cartID uuid.UUID) (*cart.Cart, error) {
	c, err := s.store.Get(ctx, cartID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, apierror.NotFound("Carrinho não encontrado ou expirado")
	}
	if err != nil {
		return nil, apierror.Persistence("falha ao carregar carrinho", err)
	}
	return c, nil
}

func (s *cartService) save(ctx context.Context, c *cart.Cart) error {
	if err := s.store.Save(ctx, c); err != nil {
		return apierror.Persistence("falha ao salvar carrinho", err)
	}
	return nil
}

func cartToResponse(c *cart.Cart) *dto.CartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return &dto.CartResponse{
		ID:         c.ID.String(),
		ClientID:   uuidString(c.ClientID),
		PetID:      uuidString(c.PetID),
		EmployeeID: uuidString(c.EmployeeID),
		Items:      items,
		Totals:     c.Totals(),
		UpdatedAt:  c.UpdatedAt,
	}
}
