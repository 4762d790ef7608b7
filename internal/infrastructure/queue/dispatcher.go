package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 5 * time.Second
)

// Dispatcher delivers notifications asynchronously on a fixed set of workers.
// Notifications are sharded by recipient so messages to one recipient keep
// their order. Delivery is best-effort: failures are logged and counted,
// never retried and never reported to the caller.
type Dispatcher struct {
	workers []chan ports.Notification
	sender  ports.Sender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender ports.Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Notification, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// delivers what is already buffered, bounded by drainTimeout, and stops;
// Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify enqueues n on the worker responsible for its recipient. It never
// blocks: when that worker's buffer is full the notification is dropped.
func (d *Dispatcher) Notify(_ context.Context, n ports.Notification) {
	idx := d.shardIndex(n.Recipient)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "dropped").Inc()
		d.log.Warn().
			Str("channel", string(n.Channel)).
			Int("worker_id", idx).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				d.drain(id, ch, n)
				return
			}
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n ports.Notification) {
	if err := d.sender.Send(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "failed").Inc()
		d.log.Error().Err(err).
			Str("channel", string(n.Channel)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "sent").Inc()
}

// drain delivers pending and then the notifications still buffered on ch.
// Whatever is left when drainTimeout runs out is counted and logged as
// dropped.
func (d *Dispatcher) drain(id int, ch <-chan ports.Notification, pending ...ports.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	attempted, dropped := 0, 0
	for _, n := range pending {
		d.deliver(ctx, id, n)
		attempted++
	}
	for {
		select {
		case n := <-ch:
			if ctx.Err() != nil {
				dropped++
				metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "dropped").Inc()
				continue
			}
			d.deliver(ctx, id, n)
			attempted++
		default:
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			if attempted > 0 || dropped > 0 {
				d.log.Info().
					Int("worker_id", id).
					Int("attempted", attempted).
					Int("dropped", dropped).
					Msg("notification queue drained on shutdown")
			}
			return
		}
	}
}
