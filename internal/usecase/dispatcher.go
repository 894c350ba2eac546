package usecase

import (
	"context"
	"errors"
	"log/slog"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/metrics"
	"NewsRelay/internal/ports"
)

// DispatcherDeps wires the delivery side of one poller.
type DispatcherDeps struct {
	Sender   ports.Sender
	Ledger   ports.Ledger
	Policy   ports.DisplayPolicy
	Channels []string
	Poller   string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Dispatcher fans an article out to every configured channel.
type Dispatcher struct {
	sender   ports.Sender
	ledger   ports.Ledger
	policy   ports.DisplayPolicy
	channels []string
	poller   string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

var _ ports.Deliverer = (*Dispatcher)(nil)

// NewDispatcher copies the channel list so later config changes do not leak in.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:   deps.Sender,
		ledger:   deps.Ledger,
		policy:   deps.Policy,
		channels: append([]string(nil), deps.Channels...),
		poller:   deps.Poller,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Deliver sends the article to each channel in order. The identity is
// recorded as soon as one channel accepts it, so a failure on a later
// channel cannot cause the article to be sent again next round. Failed
// channels are not retried.
func (d *Dispatcher) Deliver(ctx context.Context, article domain.Article) domain.DeliveryReport {
	report := domain.DeliveryReport{ID: article.ID, Outcomes: make([]domain.ChannelOutcome, 0, len(d.channels))}
	msg := d.policy.Render(article)
	recorded := false

	for _, channel := range d.channels {
		if ctx.Err() != nil {
			break
		}

		outcome := domain.ChannelOutcome{Channel: channel}
		err := d.sender.Send(ctx, channel, msg)
		if err != nil {
			outcome.Err = err
			var te *domain.TransportError
			if errors.As(err, &te) {
				outcome.StatusCode = te.StatusCode
				d.logger.Warn("send failed",
					"id", article.ID,
					"channel", channel,
					"status", te.StatusCode,
					"body", te.Body,
					"error", err,
				)
			} else {
				d.logger.Warn("send failed", "id", article.ID, "channel", channel, "error", err)
			}
			d.metrics.ChannelFailed(d.poller, channel)
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}

		outcome.Delivered = true
		outcome.StatusCode = 200
		report.Outcomes = append(report.Outcomes, outcome)
		d.logger.Debug("sent", "id", article.ID, "channel", channel)

		if recorded {
			continue
		}
		if err := d.ledger.Record(ctx, article.ID); err != nil {
			d.metrics.LedgerFailed(d.poller, "record")
			d.logger.Error("record delivered identity", "id", article.ID, "error", err)
			continue
		}
		recorded = true
	}

	return report
}
