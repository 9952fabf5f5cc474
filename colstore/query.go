package colstore

import (
	"context"

	"github.com/tindahl/coltree/config"
	"github.com/tindahl/coltree/util/log"
)

/*
The read path is split in two. Registry.Query logs the request and opens
the per-id iterators, taking each shard lock only for the lookup.
QueryDriver then reports missing ids, rejects unsupported ordering up
front, and batch-reads with group-by and back-pressure handling.
Registry.Query is the only caller; the driver is split out so the
batching/back-pressure logic can be tested without a real Registry.
*/

////////////////////////////////////////////////////////////////////////////////

// QueryDriver drains a RowIterator into a Consumer in fixed-size batches.
type QueryDriver struct {
	batchSize int
}

// NewQueryDriver returns a driver reading cfg.BatchSize samples per batch.
func NewQueryDriver(cfg config.QueryConfig) *QueryDriver {
	return &QueryDriver{batchSize: cfg.BatchSize}
}

// Run drains it into consumer. missing is the set of requested ids that
// had no registered column; each is reported once via consumer.SetError
// before any data is delivered - a missing id is a per-id NOT_FOUND, not
// a fatal error for the whole request.
//
// Group-by validation preserves this system's observed behavior exactly:
// when req.GroupBy is enabled, every emitted sample's id is checked
// against req.GroupBy.TransientMap, but the sample is always dropped
// rather than emitted grouped - the grouped-emission feature this was
// meant to gate was never implemented upstream of this facade, and this
// driver does not invent one. An id missing from TransientMap is treated
// as a BadArg and stops the run.
func (d *QueryDriver) Run(
	ctx context.Context, it *RowIterator, missing []ParamId, req ReshapeRequest, consumer Consumer,
) error {
	log.Tracef(ctx, "query driver run: orderby=%v groupby=%v batch=%d",
		req.OrderBy, req.GroupBy.Enabled, d.batchSize)

	for _, id := range missing {
		log.Debugw(ctx, "query series not found", "paramid", id)
		consumer.SetError(StatusNotFound)
	}

	if req.OrderBy == OrderByTime {
		consumer.SetError(StatusNotImplemented)
		return nil
	}

	batch := make([]Sample, d.batchSize)
	for {
		status, n, err := it.Read(ctx, batch)
		if err != nil {
			log.Errorw(ctx, "query driver read failed", "error", err)
			consumer.SetError(StatusIO)
			return err
		}
		switch status {
		case StatusNotImplemented:
			consumer.SetError(StatusNotImplemented)
			return nil
		case StatusNoData:
			return nil
		case StatusOK:
		default:
			consumer.SetError(status)
			return nil
		}

		for _, sample := range batch[:n] {
			if req.GroupBy.Enabled {
				if _, ok := req.GroupBy.TransientMap[sample.ID]; !ok {
					consumer.SetError(StatusBadArg)
					return nil
				}
				continue
			}
			if !consumer.Put(sample) {
				log.Tracef(ctx, "query driver stopped by consumer back-pressure")
				return nil
			}
		}
	}
}

// Query opens one iterator per requested id and delegates composition and
// draining to a QueryDriver.
func (r *Registry) Query(ctx context.Context, req ReshapeRequest, consumer Consumer) error {
	log.Tracef(ctx, "query request: ids=%v begin=%d end=%d", req.Select.IDs, req.Select.Begin, req.Select.End)

	iters, missing, err := r.openIterators(ctx, req.Select)
	if err != nil {
		consumer.SetError(StatusIO)
		return err
	}

	rowIt := NewChainIterator(iters)
	driver := NewQueryDriver(r.cfg.Query)
	return driver.Run(ctx, rowIt, missing, req, consumer)
}
