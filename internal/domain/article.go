package domain

import "time"

// FeedMeta carries metadata supplied by a feed listing. When present it is used
// verbatim instead of being scraped from the detail page.
type FeedMeta struct {
	PubTime    string
	SourceName string
	Author     string
}

// ArticleStub is a single entry discovered on a listing source.
type ArticleStub struct {
	ID    string
	Title string
	Link  string
	Feed  *FeedMeta
}

// Article is the normalized content of one detail page, ready for display.
type Article struct {
	ID          string
	Title       string
	PublishTime string
	Source      string
	Author      string
	Body        string
	Link        string
}

// LedgerEntry records a delivered identity.
type LedgerEntry struct {
	ID          string
	DeliveredAt time.Time
}

// Message is the rendered payload for a messaging channel.
type Message struct {
	Text           string
	ParseMode      string
	DisablePreview bool
}

// ChannelOutcome describes the result of sending to one destination channel.
type ChannelOutcome struct {
	Channel    string
	Delivered  bool
	StatusCode int
	Err        error
}

// DeliveryReport collects per-channel outcomes for one article.
type DeliveryReport struct {
	ID       string
	Outcomes []ChannelOutcome
}

// Delivered reports whether at least one channel acknowledged the message.
func (r DeliveryReport) Delivered() bool {
	for _, o := range r.Outcomes {
		if o.Delivered {
			return true
		}
	}
	return false
}

// Last returns the outcome of the last channel attempted.
func (r DeliveryReport) Last() (ChannelOutcome, bool) {
	if len(r.Outcomes) == 0 {
		return ChannelOutcome{}, false
	}
	return r.Outcomes[len(r.Outcomes)-1], true
}

// RoundReport summarizes one poll round.
type RoundReport struct {
	Poller    string
	Listed    int
	Delivered int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Empty reports whether the listings produced nothing this round.
func (r RoundReport) Empty() bool {
	return r.Delivered+r.Skipped == 0
}
