package order_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/order"
)

type fakeRepo struct {
	mu         sync.Mutex
	orders     map[uuid.UUID]order.Order
	violations map[uuid.UUID][]string
	cleared    []uuid.UUID
}

func newFakeRepo(orders ...order.Order) *fakeRepo {
	r := &fakeRepo{orders: map[uuid.UUID]order.Order{}, violations: map[uuid.UUID][]string{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (r *fakeRepo) SaveViolations(_ context.Context, id uuid.UUID, messages []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations[id] = messages
	return nil
}

func (r *fakeRepo) ClearViolations(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.violations, id)
	r.cleared = append(r.cleared, id)
	return nil
}

type fakeChannels map[uuid.UUID]channel.Channel

func (f fakeChannels) GetByID(_ context.Context, id uuid.UUID) (channel.Channel, error) {
	ch, ok := f[id]
	if !ok {
		return channel.Channel{}, channel.ErrNotFound
	}
	return ch, nil
}

func fixture() (*order.Service, *fakeRepo, order.Order, order.Order) {
	chID := uuid.New()
	ch := channel.Channel{ID: chID, Code: "EXP", Precision: 1, Limits: channel.Limits{MinPieces: 5}}

	bad := order.Order{ID: uuid.New(), ChannelID: chID, Quantity: 3}
	good := order.Order{ID: uuid.New(), ChannelID: chID, Quantity: 6}
	orphan := order.Order{ID: uuid.New(), ChannelID: uuid.New(), Quantity: 6}

	repo := newFakeRepo(bad, good, orphan)
	repo.violations[good.ID] = []string{"stale"}
	svc := &order.Service{Orders: repo, Channels: fakeChannels{chID: ch}}
	return svc, repo, bad, good
}
