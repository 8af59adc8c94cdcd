package dex

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

// metadataTTL bounds how long resolved token metadata is trusted. Symbols
// and decimals are effectively immutable, so this is generous.
const metadataTTL = 5 * time.Minute

type metaEntry struct {
	ref       model.TokenRef
	fetchedAt time.Time
}

// TokenResolver resolves ERC20 metadata through a static allow-list of
// well-known tokens first, then live symbol/decimals calls. Results are
// cached with a TTL and expired on read.
type TokenResolver struct {
	caller Caller
	logger *zap.Logger

	mu        sync.RWMutex
	cache     map[common.Address]metaEntry
	allowList map[common.Address]model.TokenRef

	now func() time.Time
}

// NewTokenResolver builds a resolver seeded with the given allow-list.
func NewTokenResolver(caller Caller, allowList []model.TokenRef, logger *zap.Logger) *TokenResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[common.Address]model.TokenRef, len(allowList))
	for _, ref := range allowList {
		known[ref.Address] = ref
	}
	return &TokenResolver{
		caller:    caller,
		logger:    logger,
		cache:     make(map[common.Address]metaEntry),
		allowList: known,
		now:       time.Now,
	}
}

// Resolve returns the token's metadata. A token whose decimals cannot be
// read comes back with DecimalsKnown=false; that state must never be fed
// into amount math.
func (r *TokenResolver) Resolve(ctx context.Context, token common.Address) model.TokenRef {
	if ref, ok := r.allowList[token]; ok {
		return ref
	}

	r.mu.RLock()
	entry, ok := r.cache[token]
	r.mu.RUnlock()
	if ok && r.now().Sub(entry.fetchedAt) < metadataTTL {
		return entry.ref
	}

	ref := r.fetch(ctx, token)
	if ref.DecimalsKnown {
		r.mu.Lock()
		r.cache[token] = metaEntry{ref: ref, fetchedAt: r.now()}
		r.mu.Unlock()
	}
	return ref
}

func (r *TokenResolver) fetch(ctx context.Context, token common.Address) model.TokenRef {
	ref := model.TokenRef{Address: token}

	stringABI, err := ERC20ABI()
	if err != nil {
		r.logger.Error("erc20 abi parse failed", zap.Error(err))
		return ref
	}

	if values, err := CallMethod(ctx, r.caller, token, stringABI, "decimals"); err == nil {
		if decimals, err := AsUint8(values[0]); err == nil {
			ref.Decimals = decimals
			ref.DecimalsKnown = true
		}
	} else {
		r.logger.Debug("decimals call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := CallMethod(ctx, r.caller, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			ref.Symbol = strings.TrimSpace(symbol)
		}
	} else if bytes32ABI, abiErr := ERC20Bytes32ABI(); abiErr == nil {
		if values, err := CallMethod(ctx, r.caller, token, bytes32ABI, "symbol"); err == nil {
			if symbol, ok := Bytes32ToString(values[0]); ok {
				ref.Symbol = strings.TrimSpace(symbol)
			}
		} else {
			r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
	}

	return ref
}
