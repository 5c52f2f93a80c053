package quote

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-freight/internal/obs"
)

const defaultConcurrency = 8

// BatchResult summarises a batch quoting run. Failures maps order IDs to the
// reason they could not be quoted.
type BatchResult struct {
	Orders   int               `json:"orders"`
	Failed   int               `json:"failed"`
	TotalFee float64           `json:"totalFee"`
	Failures map[string]string `json:"failures,omitempty"`
}

// RunBatch quotes orders in parallel. A failing order is logged and counted
// without stopping the others; only context cancellation aborts the run.
func (s *Service) RunBatch(ctx context.Context, ids []uuid.UUID) (BatchResult, error) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu    sync.Mutex
		total = decimal.Zero
		res   = BatchResult{Orders: len(ids)}
	)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, err := s.QuoteOrder(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log().Warn().Err(err).Str("order_id", id.String()).Msg("bill run: order could not be quoted")
				countBillRunOrder("failed")
				mu.Lock()
				res.Failed++
				if res.Failures == nil {
					res.Failures = map[string]string{}
				}
				res.Failures[id.String()] = err.Error()
				mu.Unlock()
				return nil
			}
			countBillRunOrder("ok")
			mu.Lock()
			total = total.Add(decimal.NewFromFloat(q.Total))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	res.TotalFee = total.Round(2).InexactFloat64()
	return res, nil
}

func countBillRunOrder(result string) {
	if obs.BillRunOrdersTotal != nil {
		obs.BillRunOrdersTotal.WithLabelValues(result).Inc()
	}
}
