package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xconc/lib/infra"
)

const (
	meterScope       = "github.com/benz9527/xconc"
	retriesCounter   = "xconc.retries"
	lenGauge         = "xconc.len"
	structureAttrKey = "structure"
	opAttrKey        = "op"
)

var (
	_ infra.RetryObserver = (*retryCounter)(nil)
)

// retryCounter counts the restarted operations of the concurrent
// structures, split by structure and operation.
type retryCounter struct {
	counter metric.Int64Counter
}

func (c *retryCounter) ObserveRetry(structure, op string) {
	c.counter.Add(
		context.Background(),
		1,
		metric.WithAttributes(
			attribute.String(structureAttrKey, structure),
			attribute.String(opAttrKey, op),
		),
	)
}

func NewRetryObserver(mp metric.MeterProvider) (infra.RetryObserver, error) {
	counter, err := mp.Meter(meterScope).Int64Counter(
		retriesCounter,
		metric.WithDescription("Failed validations and lost CAS races."),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}
	return &retryCounter{counter: counter}, nil
}

// RegisterLenGauge reports lenFn of a structure on every collection.
func RegisterLenGauge(mp metric.MeterProvider, structure string, lenFn func() int64) error {
	_, err := mp.Meter(meterScope).Int64ObservableGauge(
		lenGauge,
		metric.WithDescription("Advisory element count of a structure."),
		metric.WithUnit("{element}"),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(lenFn(), metric.WithAttributes(attribute.String(structureAttrKey, structure)))
			return nil
		}),
	)
	return err
}
