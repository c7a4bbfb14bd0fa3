package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

func TestOrderRepository_PostgresInsertFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := openPostgresStoreForIntegrationTest(t)
	seedDirectoryForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	first, err := repo.Insert(ctx, sampleOrder("user-1"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Insert(ctx, sampleOrder("user-1"))
	require.NoError(t, err)

	view, err := repo.FindByID(ctx, first.ID, domain.ExpandAll)
	require.NoError(t, err)
	require.Equal(t, "user-1", view.OwnerID)
	require.NotNil(t, view.Owner)
	require.Equal(t, "Alice", view.Owner.Name)
	require.NotNil(t, view.ShippingAddress)
	require.Equal(t, "Berlin", view.ShippingAddress.City)
	require.Len(t, view.Lines, 2)
	require.Equal(t, "prod-1", view.Lines[0].ProductID)
	require.NotNil(t, view.Lines[0].Product)
	require.True(t, view.Lines[0].Product.Price.Equal(decimal.RequireFromString("25.50")))
	require.True(t, view.TotalAmount.Equal(decimal.RequireFromString("40.47")))

	mine, err := repo.Find(ctx, domain.ByOwnerAndStatuses("user-1", domain.AllStatuses...), domain.ExpandAll)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second.ID, mine[0].ID)
	require.Equal(t, first.ID, mine[1].ID)

	updated, err := repo.UpdateStatus(ctx, first.ID, domain.OrderStatusCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, updated.Status)
	require.Len(t, updated.Lines, 2)

	cancelled, err := repo.Find(ctx, domain.ByStatuses(domain.OrderStatusCancelled), domain.ExpandNone)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	require.Nil(t, cancelled[0].Owner)
}

func TestOrderRepository_PostgresTotalAmountKeepsScale(t *testing.T) {
	ctx := context.Background()
	store := openPostgresStoreForIntegrationTest(t)
	seedDirectoryForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	for _, raw := range []string{"40.005", "0.001", "12345678901234567.123456789"} {
		order := sampleOrder("user-1")
		order.TotalAmount = decimal.RequireFromString(raw)

		created, err := repo.Insert(ctx, order)
		require.NoError(t, err, raw)

		view, err := repo.FindByID(ctx, created.ID, domain.ExpandNone)
		require.NoError(t, err, raw)
		require.True(t, view.TotalAmount.Equal(order.TotalAmount), "%s read back as %s", raw, view.TotalAmount)
	}
}

func TestOrderRepository_PostgresDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := sampleOrder("ghost")
	order.ShippingAddressID = "addr-missing"
	created, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	view, err := repo.FindByID(ctx, created.ID, domain.ExpandAll)
	require.NoError(t, err)
	require.Nil(t, view.Owner)
	require.Nil(t, view.ShippingAddress)
	require.Nil(t, view.Lines[0].Product)
}

func TestOrderRepository_PostgresErrors(t *testing.T) {
	ctx := context.Background()
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	_, err := repo.FindByID(ctx, "missing-order", domain.ExpandAll)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.UpdateStatus(ctx, "missing-order", domain.OrderStatusShipped, nil)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	order := sampleOrder("user-1")
	order.ID = "fixed-order-id"
	_, err = repo.Insert(ctx, order)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, order)
	require.ErrorIs(t, err, domain.ErrPersistence)

	veto := errors.New("veto")
	_, err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted, func(domain.OrderStatus) error { return veto })
	require.ErrorIs(t, err, veto)

	view, err := repo.FindByID(ctx, order.ID, domain.ExpandNone)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusOrdered, view.Status)
}

func TestDirectory_PostgresCatalogAndIndex(t *testing.T) {
	ctx := context.Background()
	store := openPostgresStoreForIntegrationTest(t)
	dir := seedDirectoryForIntegrationTest(t, store)

	found, err := dir.ExistingProducts(ctx, []string{"prod-1", "prod-1", "prod-x"})
	require.NoError(t, err)
	require.Equal(t, []string{"prod-1"}, found)

	user, err := dir.AppendOrder(ctx, "user-1", "order-a")
	require.NoError(t, err)
	user, err = dir.AppendOrder(ctx, "user-1", "order-b")
	require.NoError(t, err)
	require.Equal(t, []string{"order-a", "order-b"}, user.Orders)

	_, err = dir.AppendOrder(ctx, "ghost", "order-c")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}

func sampleOrder(ownerID string) domain.Order {
	return domain.Order{
		OwnerID: ownerID,
		Lines: []domain.OrderLine{
			{ProductID: "prod-1", Quantity: 1},
			{ProductID: "prod-2", Quantity: 3},
		},
		TotalAmount:       decimal.RequireFromString("40.47"),
		PaymentMethod:     "card",
		ShippingAddressID: "addr-1",
	}
}
