package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TEENet-io/faucet-go/reservation"
)

var (
	ErrInvalidRequest = errors.New("invalid mint request")

	// kinds of ErrInvalidRequest
	ErrMissingField    = errors.New("missing 'name' or 'receiver' field")
	ErrInvalidClientIP = errors.New("invalid client ip")
	ErrInvalidReceiver = errors.New("missing or invalid 'receiver' field")

	ErrUnknownAsset = errors.New("unknown asset")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// Decision of the admission controller for one request.
type Decision int

const (
	Admitted Decision = iota
	RejectedRateLimitClient
	RejectedRateLimitDestination
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case RejectedRateLimitClient:
		return "rate_limited_client"
	case RejectedRateLimitDestination:
		return "rate_limited_destination"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// RateLimitError is returned when a live reservation blocks the request.
type RateLimitError struct {
	Decision   Decision
	RetryAfter time.Duration // 0 when unknown
}

func (e *RateLimitError) Error() string {
	switch e.Decision {
	case RejectedRateLimitClient:
		return "rate limit exceeded for this IP"
	case RejectedRateLimitDestination:
		return "rate limit exceeded for this address"
	default:
		return ErrRateLimited.Error()
	}
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Ticket is the pair of keys reserved for an admitted request.
// Whoever sees the request fail after admission hands it back via Release.
type Ticket struct {
	ClientKey reservation.Key
	DestKey   reservation.Key
}

// Releaser rolls a reservation back.
type Releaser interface {
	Release(ctx context.Context, t *Ticket) error
}
