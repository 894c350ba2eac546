package ports

import (
	"context"

	"NewsRelay/internal/domain"
)

// Fetcher downloads a URL and returns the body of a successful response.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// ArticleSource gathers the stubs of every listing configured for a poller.
// Per-listing failures are absorbed; the result is simply shorter.
type ArticleSource interface {
	Fetch(ctx context.Context) []domain.ArticleStub
}

// Normalizer turns a stub into display-ready article content.
type Normalizer interface {
	Normalize(ctx context.Context, stub domain.ArticleStub) domain.Article
}

// Ledger is the durable set of delivered identities.
type Ledger interface {
	Has(ctx context.Context, id string) (bool, error)
	// Record is idempotent: recording a known identity is a no-op.
	Record(ctx context.Context, id string) error
}

// DisplayPolicy renders an article for a messaging channel.
type DisplayPolicy interface {
	Render(article domain.Article) domain.Message
}

// Sender transmits a rendered message to one destination channel.
type Sender interface {
	Send(ctx context.Context, channel string, msg domain.Message) error
}

// Deliverer fans an article out to the configured channels.
type Deliverer interface {
	Deliver(ctx context.Context, article domain.Article) domain.DeliveryReport
}

// Scheduler controls when a job executes.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
	// Done is closed once the job loop has exited.
	Done() <-chan struct{}
}
