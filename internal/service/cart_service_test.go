package service

import (
	"context"
	"testing"
	"time"

	"petzap/internal/apierror"
	"petzap/internal/cart"
	"petzap/internal/dto"
	"petzap/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_ProductLinesAndTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()
	p := env.seedProduct(t, "Coleira M", "25", 5)

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	id := mustUUID(t, c.ID)

	_, err = svc.AddProduct(ctx, id, dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	require.NoError(t, err)
	c, err = svc.AddProduct(ctx, id, dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "same product bumps quantity")
	assert.Equal(t, 3, c.Items[0].Quantity)

	c, err = svc.ApplyDiscount(ctx, id, c.Items[0].ID, dto.ApplyDiscountRequest{Amount: dec("15")})
	require.NoError(t, err)
	assert.True(t, c.Totals.Subtotal.Equal(dec("75")))
	assert.True(t, c.Totals.TotalDiscount.Equal(dec("15")))
	assert.True(t, c.Totals.AmountDue.Equal(dec("60")))

	c, err = svc.ApplyDiscount(ctx, id, c.Items[0].ID, dto.ApplyDiscountRequest{Amount: dec("500")})
	require.NoError(t, err)
	assert.True(t, c.Totals.AmountDue.IsZero(), "discount is clamped to the line gross")

	c, err = svc.RemoveItem(ctx, id, c.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCart_SelectClientReplacesServices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()

	client, pet := env.seedClientPet(t, "medio")
	env.seedAppointment(t, client, pet, "banho", time.Now(), decPtr("50"))
	otherPet := &model.Pet{ClientID: client.ID, Name: "Luna", Species: "gato"}
	require.NoError(t, env.db.Create(otherPet).Error)
	p := env.seedProduct(t, "Areia", "30", 5)

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	id := mustUUID(t, c.ID)
	_, err = svc.AddProduct(ctx, id, dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	require.NoError(t, err)

	c, err = svc.SelectClientPet(ctx, id, dto.SelectClientRequest{ClientID: idOf(client.ID), PetID: idOf(pet.ID)})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, cart.TypeGrooming, c.Items[1].Type)
	assert.Equal(t, "Thor", c.Items[1].PetName)

	_, err = svc.RemoveItem(ctx, id, c.Items[1].ID)
	assert.ErrorIs(t, err, apierror.ErrPrecondition)
	_, err = svc.UpdateQuantity(ctx, id, c.Items[1].ID, dto.UpdateQuantityRequest{Quantity: 2})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)

	c, err = svc.SelectClientPet(ctx, id, dto.SelectClientRequest{ClientID: idOf(client.ID), PetID: idOf(otherPet.ID)})
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "previous pet's services are dropped, products stay")
	assert.Equal(t, cart.TypeProduct, c.Items[0].Type)
	require.NotNil(t, c.PetID)
	assert.Equal(t, idOf(otherPet.ID), *c.PetID)
}

func TestCart_SelectUnknownClient(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cartService()
	c, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.SelectClientPet(context.Background(), mustUUID(t, c.ID),
		dto.SelectClientRequest{ClientID: newID().String(), PetID: newID().String()})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestCart_PetMustBelongToClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()
	client, _ := env.seedClientPet(t, "medio")
	stranger := &model.Client{Name: "João Lima", Whatsapp: "5511988887777"}
	require.NoError(t, env.db.Create(stranger).Error)
	otherPet := &model.Pet{ClientID: stranger.ID, Name: "Mel", Species: "cachorro"}
	require.NoError(t, env.db.Create(otherPet).Error)
	env.seedAppointment(t, stranger, otherPet, "banho", time.Now(), decPtr("50"))

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	id := mustUUID(t, c.ID)

	_, err = svc.SelectClientPet(ctx, id, dto.SelectClientRequest{ClientID: idOf(client.ID), PetID: idOf(otherPet.ID)})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = svc.SelectClientPet(ctx, id, dto.SelectClientRequest{ClientID: idOf(client.ID), PetID: newID().String()})
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	c, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c.ClientID, "rejected selection leaves the cart untouched")
	assert.Empty(t, c.Items)
}

func TestCart_OutOfStockProduct(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	p := env.seedProduct(t, "Bebedouro", "40", 0)
	svc := env.cartService()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, mustUUID(t, c.ID), dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)

	env.features.StockEnabled = false
	svc = env.cartService()
	got, err := svc.AddProduct(ctx, mustUUID(t, c.ID), dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	require.NoError(t, err, "stock control off sells regardless")
	assert.Len(t, got.Items, 1)
}

func TestCart_EmployeeMustBeActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()
	emp := env.seedEmployee(t)

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	id := mustUUID(t, c.ID)

	c, err = svc.SetEmployee(ctx, id, dto.SetEmployeeRequest{EmployeeID: idOf(emp.ID)})
	require.NoError(t, err)
	require.NotNil(t, c.EmployeeID)

	require.NoError(t, env.db.Model(emp).Update("active", false).Error)
	_, err = svc.SetEmployee(ctx, id, dto.SetEmployeeRequest{EmployeeID: idOf(emp.ID)})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)

	c, err = svc.SetEmployee(ctx, id, dto.SetEmployeeRequest{})
	require.NoError(t, err)
	assert.Nil(t, c.EmployeeID)
}

func TestCart_InactiveProductRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()
	p := env.seedProduct(t, "Brinquedo", "12", 3)
	require.NoError(t, env.db.Model(p).Update("active", false).Error)

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, mustUUID(t, c.ID), dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)
}

func TestCart_DiscardedCartIsGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.cartService()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	id := mustUUID(t, c.ID)

	require.NoError(t, svc.Discard(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
