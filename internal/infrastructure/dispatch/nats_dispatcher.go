package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

// NATSDispatcher hands jobs to the external scrape worker by publishing
// to a subject the worker subscribes on. Fire-and-forget: delivery is
// at-most-once per call and the caller retries on error.
//
// The connection is established on first use so commands that never
// dispatch do not require a reachable broker.
type NATSDispatcher struct {
	url     string
	subject string

	mu   sync.Mutex
	conn *nats.Conn
}

func NewNATSDispatcher(url, subject string) *NATSDispatcher {
	return &NATSDispatcher{url: url, subject: subject}
}

func (d *NATSDispatcher) connection() (*nats.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil && !d.conn.IsClosed() {
		return d.conn, nil
	}
	if d.url == "" {
		return nil, errors.New("dispatch url is required")
	}
	if d.subject == "" {
		return nil, errors.New("dispatch subject is required")
	}

	conn, err := nats.Connect(d.url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	d.conn = conn
	return conn, nil
}

func (d *NATSDispatcher) Dispatch(ctx context.Context, req ports.DispatchRequest) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	conn, err := d.connection()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return errs.Wrap(err, "marshal dispatch request")
	}

	if err := conn.Publish(d.subject, payload); err != nil {
		return errs.Wrap(err, "publish dispatch request")
	}

	// Surface broker connectivity problems to the caller instead of
	// letting the publish sit in the client buffer unacknowledged.
	if err := conn.FlushTimeout(5 * time.Second); err != nil {
		return errs.Wrap(err, "flush dispatch publish")
	}
	return nil
}

func (d *NATSDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}
