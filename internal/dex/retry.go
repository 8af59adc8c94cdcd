package dex

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"

	"positionScope/internal/chain"
)

// RetryingCaller decorates a Caller with exponential-backoff retries for
// transient RPC failures. Reverts and empty results are structural and
// returned on the first attempt.
type RetryingCaller struct {
	inner      Caller
	maxRetries int
	backoff    time.Duration
}

func NewRetryingCaller(inner Caller, maxRetries int, backoff time.Duration) *RetryingCaller {
	return &RetryingCaller{
		inner:      inner,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

func (r *RetryingCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var (
		out       []byte
		permanent error
	)
	err := chain.WithRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		resp, err := r.inner.CallContract(ctx, msg, blockNumber)
		if err != nil {
			if IsAbsence(err) {
				permanent = err
				return nil
			}
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, permanent
	}
	return out, nil
}
