package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []DomainEvent
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...DomainEvent) error {
	p.published = append(p.published, events...)
	return p.err
}

func newAggregateWithEvents(n int) *TenantAggregateRoot {
	agg := NewTenantAggregateRoot(uuid.New())
	for i := 0; i < n; i++ {
		evt := NewBaseDomainEvent("Tested", "Test", agg.ID, agg.TenantID)
		agg.AddDomainEvent(&evt)
	}
	return &agg
}

func TestNewTenantAggregateRoot(t *testing.T) {
	tenantID := uuid.New()
	agg := NewTenantAggregateRoot(tenantID)

	assert.NotEqual(t, uuid.Nil, agg.ID)
	assert.Equal(t, tenantID, agg.TenantID)
	assert.Equal(t, 1, agg.GetVersion())
	assert.Equal(t, agg.CreatedAt, agg.UpdatedAt)
	assert.Nil(t, agg.CreatedBy)

	agg.IncrementVersion()
	assert.Equal(t, 2, agg.GetVersion())

	user := uuid.New()
	agg.SetCreatedBy(user)
	require.NotNil(t, agg.CreatedBy)
	assert.Equal(t, user, *agg.CreatedBy)
}

func TestPullDomainEvents(t *testing.T) {
	agg := newAggregateWithEvents(2)
	require.Len(t, agg.GetDomainEvents(), 2)

	events := agg.PullDomainEvents()
	assert.Len(t, events, 2)
	assert.Empty(t, agg.GetDomainEvents())
	assert.Empty(t, agg.PullDomainEvents())
}

func TestPublishPending(t *testing.T) {
	t.Run("publishes and drains every source", func(t *testing.T) {
		a, b := newAggregateWithEvents(1), newAggregateWithEvents(2)
		pub := &recordingPublisher{}

		require.NoError(t, PublishPending(context.Background(), pub, a, b))
		assert.Len(t, pub.published, 3)
		assert.Empty(t, a.GetDomainEvents())
		assert.Empty(t, b.GetDomainEvents())
	})

	t.Run("nil publisher still drains", func(t *testing.T) {
		a := newAggregateWithEvents(1)
		require.NoError(t, PublishPending(context.Background(), nil, a))
		assert.Empty(t, a.GetDomainEvents())
	})

	t.Run("returns the first error and keeps going", func(t *testing.T) {
		a, b := newAggregateWithEvents(1), newAggregateWithEvents(1)
		pub := &recordingPublisher{err: errors.New("bus stopped")}

		err := PublishPending(context.Background(), pub, a, b)
		assert.EqualError(t, err, "bus stopped")
		assert.Len(t, pub.published, 2)
		assert.Empty(t, b.GetDomainEvents())
	})
}

func TestFilterAndPaginated(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 0, f.Offset())

	f.Page, f.PageSize = 3, 500
	assert.Equal(t, MaxPageSize, f.Limit())
	assert.Equal(t, 2*MaxPageSize, f.Offset())

	page := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 20).TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 10, 1, 0).TotalPages)
}
