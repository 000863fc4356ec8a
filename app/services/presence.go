package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var ErrPresenceClosed = errors.New("presence registry is closed")

const mirrorTimeout = 3 * time.Second

var presenceOnlineGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "presence_online_accounts",
	Help: "Number of accounts with at least one open presence stream",
})

// PresenceEvent is pushed to every open stream when the online set changes
type PresenceEvent struct {
	Online int    `json:"online"`
	At     string `json:"at"`
}

// PresenceRegistry tracks which accounts hold an open presence stream
type PresenceRegistry interface {
	Start(ctx context.Context) error
	Close() error
	// Connect registers one stream for accountID. release must be called exactly once.
	Connect(ctx context.Context, accountID uint) (events <-chan PresenceEvent, release func(), err error)
	Online() []uint
	IsOnline(accountID uint) bool
}

type subscriber struct {
	ch chan PresenceEvent
}

type presenceRegistry struct {
	mu      sync.Mutex
	refs    map[uint]int
	subs    map[*subscriber]struct{}
	started bool
	closed  bool

	// mirrorMu orders mirror writes; each write re-reads refs so the last one wins with current state
	mirrorMu  sync.Mutex
	mirror    *redis.Client
	mirrorKey string
}

// NewPresenceRegistry creates the registry. A non-nil client mirrors the online set into a Redis set.
func NewPresenceRegistry(mirror *redis.Client, mirrorKey string) PresenceRegistry {
	if mirrorKey == "" {
		mirrorKey = "presence:online"
	}
	return &presenceRegistry{
		refs:      make(map[uint]int),
		subs:      make(map[*subscriber]struct{}),
		mirror:    mirror,
		mirrorKey: mirrorKey,
	}
}

func (r *presenceRegistry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrPresenceClosed
	}
	r.started = true
	presenceOnlineGauge.Set(0)
	return nil
}

func (r *presenceRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ids := make([]uint, 0, len(r.refs))
	for id := range r.refs {
		ids = append(ids, id)
	}
	for s := range r.subs {
		close(s.ch)
	}
	r.subs = make(map[*subscriber]struct{})
	r.refs = make(map[uint]int)
	r.mu.Unlock()

	presenceOnlineGauge.Set(0)
	if r.mirror != nil && len(ids) > 0 {
		r.mirrorMu.Lock()
		defer r.mirrorMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := r.mirror.SRem(ctx, r.mirrorKey, members(ids)...).Err(); err != nil {
			log.Printf("presence mirror cleanup failed: %v", err)
		}
	}
	return nil
}

func (r *presenceRegistry) Connect(ctx context.Context, accountID uint) (<-chan PresenceEvent, func(), error) {
	r.mu.Lock()
	if r.closed || !r.started {
		r.mu.Unlock()
		return nil, nil, ErrPresenceClosed
	}
	sub := &subscriber{ch: make(chan PresenceEvent, 4)}
	r.subs[sub] = struct{}{}
	r.refs[accountID]++
	first := r.refs[accountID] == 1
	r.broadcastLocked()
	r.mu.Unlock()

	if first {
		r.syncMirror(accountID)
	}

	var once sync.Once
	release := func() {
		once.Do(func() { r.release(sub, accountID) })
	}
	return sub.ch, release, nil
}

func (r *presenceRegistry) release(sub *subscriber, accountID uint) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if _, ok := r.subs[sub]; ok {
		delete(r.subs, sub)
		close(sub.ch)
	}
	last := false
	if n, ok := r.refs[accountID]; ok {
		if n <= 1 {
			delete(r.refs, accountID)
			last = true
		} else {
			r.refs[accountID] = n - 1
		}
	}
	r.broadcastLocked()
	r.mu.Unlock()

	if last {
		r.syncMirror(accountID)
	}
}

// broadcastLocked drops events for subscribers that are not draining their channel
func (r *presenceRegistry) broadcastLocked() {
	presenceOnlineGauge.Set(float64(len(r.refs)))
	ev := PresenceEvent{Online: len(r.refs), At: time.Now().UTC().Format(time.RFC3339)}
	for s := range r.subs {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

func (r *presenceRegistry) Online() []uint {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.refs))
	for id := range r.refs {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *presenceRegistry) IsOnline(accountID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[accountID] > 0
}

// syncMirror writes the current online state of accountID to the Redis set
func (r *presenceRegistry) syncMirror(accountID uint) {
	if r.mirror == nil {
		return
	}
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()

	r.mu.Lock()
	online := !r.closed && r.refs[accountID] > 0
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	member := strconv.FormatUint(uint64(accountID), 10)
	if online {
		if err := r.mirror.SAdd(ctx, r.mirrorKey, member).Err(); err != nil {
			log.Printf("presence mirror add failed for %d: %v", accountID, err)
		}
		return
	}
	if err := r.mirror.SRem(ctx, r.mirrorKey, member).Err(); err != nil {
		log.Printf("presence mirror remove failed for %d: %v", accountID, err)
	}
}

func members(ids []uint) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}
