package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
	"github.com/vladislavdragonenkov/storeorders/internal/service/orders"
)

func ids(views []domain.OrderView) []string {
	result := make([]string, 0, len(views))
	for _, view := range views {
		result = append(result, view.ID)
	}
	return result
}

func TestPartitionedView_GlobalBucketSizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active1 := f.place(t, "cust-1")
	active2 := f.place(t, "cust-2")
	completed := f.place(t, "cust-1")
	cancelled := f.place(t, "cust-2")

	_, err := f.service.Transition(ctx, active2.ID, "Shipped")
	require.NoError(t, err)
	_, err = f.service.Transition(ctx, completed.ID, "Completed")
	require.NoError(t, err)
	_, err = f.service.Transition(ctx, cancelled.ID, "Cancelled")
	require.NoError(t, err)

	buckets, err := f.service.PartitionedView(ctx, orders.GlobalScope())
	require.NoError(t, err)

	require.Len(t, buckets.Active, 2)
	require.Len(t, buckets.Completed, 1)
	require.Len(t, buckets.Cancelled, 1)
	require.ElementsMatch(t, []string{active1.ID, active2.ID}, ids(buckets.Active))
	require.Equal(t, completed.ID, buckets.Completed[0].ID)
	require.Equal(t, cancelled.ID, buckets.Cancelled[0].ID)
}

func TestPartitionedView_DisjointAndExhaustive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	placed := make(map[string]struct{})
	for i := 0; i < 18; i++ {
		owner := "cust-1"
		if i%3 == 0 {
			owner = "cust-2"
		}
		order := f.place(t, owner)
		placed[order.ID] = struct{}{}

		status := domain.AllStatuses[i%len(domain.AllStatuses)]
		if status != domain.OrderStatusOrdered {
			_, err := f.service.Transition(ctx, order.ID, string(status))
			require.NoError(t, err)
		}
	}

	for _, scope := range []orders.Scope{orders.GlobalScope(), orders.OwnerScope("cust-1"), orders.OwnerScope("cust-2")} {
		buckets, err := f.service.PartitionedView(ctx, scope)
		require.NoError(t, err)

		seen := make(map[string]string)
		check := func(bucket string, views []domain.OrderView, accept func(domain.OrderStatus) bool) {
			for _, view := range views {
				prev, dup := seen[view.ID]
				require.False(t, dup, "order %s in %s and %s", view.ID, prev, bucket)
				seen[view.ID] = bucket
				require.True(t, accept(view.Status), "order %s with status %s in %s", view.ID, view.Status, bucket)
			}
		}
		check("active", buckets.Active, domain.OrderStatus.Active)
		check("completed", buckets.Completed, func(s domain.OrderStatus) bool { return s == domain.OrderStatusCompleted })
		check("cancelled", buckets.Cancelled, func(s domain.OrderStatus) bool { return s == domain.OrderStatusCancelled })

		all, err := f.repo.Find(ctx, scopeQuery(scope), domain.ExpandNone)
		require.NoError(t, err)
		require.Equal(t, len(all), buckets.Total(), "scope %+v", scope)
		for _, view := range all {
			require.Contains(t, seen, view.ID)
		}
	}
	require.Len(t, placed, 18)
}

// scopeQuery строит эталонную выборку для проверки полноты корзин.
func scopeQuery(scope orders.Scope) domain.OrderQuery {
	if scope == orders.GlobalScope() {
		return domain.ByStatuses(domain.AllStatuses...)
	}
	for _, owner := range []string{"cust-1", "cust-2"} {
		if scope == orders.OwnerScope(owner) {
			return domain.ByOwnerAndStatuses(owner, domain.AllStatuses...)
		}
	}
	return domain.OrderQuery{}
}

func TestPartitionedView_OwnerScopeNewestFirstAndExpanded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, "cust-1")
	second := f.place(t, "cust-1")
	f.place(t, "cust-2")

	buckets, err := f.service.PartitionedView(ctx, orders.OwnerScope("cust-1"))
	require.NoError(t, err)
	require.Len(t, buckets.Active, 2)
	require.Empty(t, buckets.Completed)
	require.NotNil(t, buckets.Completed)
	require.Empty(t, buckets.Cancelled)

	if !second.CreatedAt.Equal(first.CreatedAt) {
		require.Equal(t, second.ID, buckets.Active[0].ID)
		require.Equal(t, first.ID, buckets.Active[1].ID)
	}
	for _, view := range buckets.Active {
		require.NotNil(t, view.Owner)
		require.NotNil(t, view.ShippingAddress)
		require.NotNil(t, view.Lines[0].Product)
	}
}

func TestPartitionedView_EmptyOwnerRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.PartitionedView(context.Background(), orders.OwnerScope(" "))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = f.service.GetOrder(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
