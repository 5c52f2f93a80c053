package quote_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/quote"
	"github.com/noah-isme/backend-freight/internal/surcharge"
)

var errBoom = errors.New("boom")

func expressChannel() channel.Channel {
	return channel.Channel{
		ID:             uuid.MustParse("6f1c1e9a-1d2b-4c55-9a4e-0f4b7c2f8a10"),
		Code:           "EXP-DE",
		RoundingMethod: channel.RoundCeil,
		Precision:      1,
		VolRatio:       6000,
		Tiers: []channel.RateTier{
			{MinWeight: 0, MaxWeight: 50, Priority: 1, BaseRate: 10},
			{MinWeight: 50, MaxWeight: 200, Priority: 1, BaseRate: 8},
		},
		Rules: []surcharge.Rule{
			{ID: "fuel", Name: "Fuel", Params: surcharge.Percentage{Rate: surcharge.Float(0.1)}},
			{ID: "handling", Name: "Handling", Params: surcharge.Fixed{Amount: surcharge.Float(2.5)}},
		},
	}
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
	saved  map[uuid.UUID]float64
	fail   map[uuid.UUID]bool
}

func newFakeOrders(orders ...order.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uuid.UUID]order.Order{}, saved: map[uuid.UUID]float64{}, fail: map[uuid.UUID]bool{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Get(_ context.Context, id uuid.UUID) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[id] {
		return order.Order{}, errBoom
	}
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) SaveChargeWeight(_ context.Context, id uuid.UUID, cw float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[id] = cw
	return nil
}

func (f *fakeOrders) savedWeight(id uuid.UUID) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.saved[id]
	return v, ok
}

type fakeChannels struct {
	channels []channel.Channel
}

func (f fakeChannels) GetByCode(_ context.Context, code string) (channel.Channel, error) {
	for _, ch := range f.channels {
		if ch.Code == code {
			return ch, nil
		}
	}
	return channel.Channel{}, channel.ErrNotFound
}

func (f fakeChannels) GetByID(_ context.Context, id uuid.UUID) (channel.Channel, error) {
	for _, ch := range f.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return channel.Channel{}, channel.ErrNotFound
}

type fakeBillRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]quote.BillRun
}

func newFakeBillRuns() *fakeBillRuns {
	return &fakeBillRuns{runs: map[uuid.UUID]quote.BillRun{}}
}

func (f *fakeBillRuns) Create(_ context.Context, id uuid.UUID, orders int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id] = quote.BillRun{ID: id, Status: quote.BillRunQueued, TotalOrders: orders, CreatedAt: time.Now()}
	return nil
}

func (f *fakeBillRuns) MarkRunning(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return quote.ErrBillRunNotFound
	}
	run.Status = quote.BillRunRunning
	f.runs[id] = run
	return nil
}

func (f *fakeBillRuns) Finish(_ context.Context, id uuid.UUID, status string, res quote.BatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return quote.ErrBillRunNotFound
	}
	now := time.Now()
	run.Status = status
	run.TotalOrders = res.Orders
	run.Failed = res.Failed
	run.TotalFee = res.TotalFee
	run.FinishedAt = &now
	f.runs[id] = run
	return nil
}

func (f *fakeBillRuns) Get(_ context.Context, id uuid.UUID) (quote.BillRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return quote.BillRun{}, quote.ErrBillRunNotFound
	}
	return run, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type countingLock struct {
	mu    sync.Mutex
	calls []string
}

func (l *countingLock) TryWithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	l.mu.Lock()
	l.calls = append(l.calls, key)
	l.mu.Unlock()
	return fn(ctx)
}

func newOrder(ch channel.Channel, weight float64) order.Order {
	return order.Order{ID: uuid.New(), ChannelID: ch.ID, Weight: weight, Length: 100, Width: 40, Height: 60, Quantity: 1}
}

func newService(ch channel.Channel, orders ...order.Order) (*quote.Service, *fakeOrders) {
	store := newFakeOrders(orders...)
	return &quote.Service{
		Orders:      store,
		Channels:    fakeChannels{channels: []channel.Channel{ch}},
		BillRuns:    newFakeBillRuns(),
		Tasks:       &fakeEnqueuer{},
		Concurrency: 4,
	}, store
}
