package node

import (
	"encoding/hex"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/1024market/kernel/internal/kernel"
)

// registry holds the kernel's live record set in memory, write-through to
// Postgres on every mutation. A single mutex is simplest and matches the
// scale this kernel runs at: one node owns all markets, so there is no
// cross-process contention to shard around.
type registry struct {
	mu        sync.Mutex
	cfg       *kernel.Config
	markets   map[string]*kernel.Market
	positions map[string]*kernel.Position // key: marketKey|owner
	orders    map[string]*kernel.Order
	proposals map[string]*kernel.OracleProposal
}

func newRegistry(cfg *kernel.Config) *registry {
	return &registry{
		cfg:       cfg,
		markets:   make(map[string]*kernel.Market),
		positions: make(map[string]*kernel.Position),
		orders:    make(map[string]*kernel.Order),
		proposals: make(map[string]*kernel.OracleProposal),
	}
}

func marketKey(marketID []byte) string { return hex.EncodeToString(marketID) }

func positionKey(marketID []byte, owner solana.PublicKey) string {
	return marketKey(marketID) + "|" + owner.String()
}

func (r *registry) getMarket(marketID []byte) (*kernel.Market, bool) {
	m, ok := r.markets[marketKey(marketID)]
	return m, ok
}

func (r *registry) getOrCreatePosition(marketID []byte, owner solana.PublicKey, outcomeCount uint8) *kernel.Position {
	key := positionKey(marketID, owner)
	p, ok := r.positions[key]
	if !ok {
		p = kernel.NewPosition(owner, marketID, outcomeCount)
		r.positions[key] = p
	}
	return p
}

func (r *registry) getOrder(orderID []byte) (*kernel.Order, bool) {
	o, ok := r.orders[string(orderID)]
	return o, ok
}

func (r *registry) getProposal(marketID []byte) (*kernel.OracleProposal, bool) {
	p, ok := r.proposals[marketKey(marketID)]
	return p, ok
}

// expiredOrders returns every resting order past its expiry at now, the set
// keeperd works through on each tick.
func (r *registry) expiredOrders(now int64) []*kernel.Order {
	var out []*kernel.Order
	for _, o := range r.orders {
		if (o.Status == kernel.OrderOpen || o.Status == kernel.OrderPartiallyFilled) && o.IsExpired(now) {
			out = append(out, o)
		}
	}
	return out
}

// resolvableMarkets returns every Active/Paused market whose resolution time
// has passed, the set keeperd pushes into Resolving on each tick.
func (r *registry) resolvableMarkets(now int64) []*kernel.Market {
	var out []*kernel.Market
	for _, m := range r.markets {
		if (m.Status == kernel.MarketActive || m.Status == kernel.MarketPaused) && now >= m.ResolutionTime {
			out = append(out, m)
		}
	}
	return out
}

// finalizableProposals returns every proposal whose challenge window has
// closed without a challenge, the set keeperd finalizes on each tick.
func (r *registry) finalizableProposals(now int64) []*kernel.OracleProposal {
	var out []*kernel.OracleProposal
	for _, p := range r.proposals {
		if p.Status == kernel.ProposalProposed && now >= p.ChallengeDeadline {
			out = append(out, p)
		}
	}
	return out
}
