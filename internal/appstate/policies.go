package appstate

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/apiclient"
	"smartstay/internal/adapters/observability"
	"smartstay/internal/retry"
)

// Rule names; also used as metric labels.
const (
	RuleNetwork     = "network"
	RuleUnavailable = "unavailable"
	RuleFailed      = "failed"
)

func isNetwork(err error) bool {
	var ne *apiclient.NetworkError
	return errors.As(err, &ne)
}

func isStatus(code int) func(error) bool {
	return func(err error) bool {
		var se *apiclient.StatusError
		return errors.As(err, &se) && se.Code == code
	}
}

// isRetryableFailure is a 2xx answer carrying success:false for anything but
// a missing user. Error statuses other than 503 are final.
func isRetryableFailure(err error) bool {
	var se *apiclient.StatusError
	if !errors.As(err, &se) || errors.Is(err, apiclient.ErrUserNotFound) {
		return false
	}
	return se.Code >= 200 && se.Code < 300
}

func observe(loader string) func(rule string, n int, err error) {
	return func(rule string, n int, err error) {
		observability.ObserveRetry(loader, rule)
		log.Debug().Str("loader", loader).Str("rule", rule).Int("retry", n).Err(err).Msg("retrying")
	}
}

// Timing holds the waits used by the default policies.
type Timing struct {
	NetworkDelay     time.Duration // rooms, fixed
	UnavailableDelay time.Duration // both loaders, fixed
	BackoffBase      time.Duration // user, exponential
	BackoffMax       time.Duration
}

var DefaultTiming = Timing{
	NetworkDelay:     3 * time.Second,
	UnavailableDelay: 3 * time.Second,
	BackoffBase:      time.Second,
	BackoffMax:       5 * time.Second,
}

// RoomsPolicy: network failures get 3 attempts, a warming-up database 6.
func RoomsPolicy(t Timing) retry.Policy {
	return retry.Policy{
		Rules: []retry.Rule{
			{Name: RuleNetwork, Match: isNetwork, MaxRetries: 2, Delay: retry.Fixed(t.NetworkDelay)},
			{Name: RuleUnavailable, Match: isStatus(http.StatusServiceUnavailable), MaxRetries: 5, Delay: retry.Fixed(t.UnavailableDelay)},
		},
		OnRetry: observe("rooms"),
	}
}

// UserPolicy never retries a missing user or a rejected token.
func UserPolicy(t Timing) retry.Policy {
	backoff := retry.Exponential(t.BackoffBase, t.BackoffMax)
	return retry.Policy{
		Rules: []retry.Rule{
			{Name: RuleNetwork, Match: isNetwork, MaxRetries: 2, Delay: backoff},
			{Name: RuleUnavailable, Match: isStatus(http.StatusServiceUnavailable), MaxRetries: 5, Delay: retry.Fixed(t.UnavailableDelay)},
			{Name: RuleFailed, Match: isRetryableFailure, MaxRetries: 2, Delay: backoff},
		},
		OnRetry: observe("user"),
	}
}
