package presence

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/astree/pulse/internal/realtime"
)

var (
	// onlineUsers gauges the number of users currently considered online.
	onlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_online_users",
		Help: "Number of users currently online.",
	})

	// statusChanges counts offline/online edge transitions by direction.
	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_presence_transitions_total",
			Help: "Total presence status transitions.",
		},
		[]string{"direction"}, // "online" | "offline"
	)
)

func init() {
	prometheus.MustRegister(onlineUsers, statusChanges)
}

// Tracker is the per-user presence state machine over a Store. All mutations
// for one user are serialized by a per-user lock, so Connect, Disconnect,
// Heartbeat, and the background Sweep can race freely without dropping
// connection ids or double-emitting a status change for the same edge.
// Different users proceed in parallel.
type Tracker struct {
	store     Store
	bus       realtime.Broadcaster
	threshold time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time // injectable for tests
}

// NewTracker builds a Tracker over store, publishing status changes through
// bus. threshold is how long an online user may stay silent before the sweep
// demotes them.
func NewTracker(store Store, bus realtime.Broadcaster, threshold time.Duration) *Tracker {
	return &Tracker{
		store:     store,
		bus:       bus,
		threshold: threshold,
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

// userLock returns the mutex serializing all mutations for userID, creating
// it on first use. Locks are never removed: presence records are never
// hard-deleted, so the lock set tracks the record set.
func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	return l
}

// load fetches the record for userID, lazily creating a fresh offline record
// on first contact (upsert semantics).
func (t *Tracker) load(ctx context.Context, userID string) (*Record, error) {
	rec, err := t.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{UserID: userID, Connections: make(map[string]bool)}
	}
	if rec.Connections == nil {
		rec.Connections = make(map[string]bool)
	}
	return rec, nil
}

// Connect registers a live connection for userID. Adding an id that is
// already present is a no-op on the set but still refreshes activity. The
// first connection of an offline user flips them online and emits exactly
// one presence.changed event.
func (t *Tracker) Connect(ctx context.Context, userID, connectionID string) error {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	rec, err := t.load(ctx, userID)
	if err != nil {
		return err
	}

	rec.Connections[connectionID] = true
	wentOnline := !rec.Online
	now := t.now()
	t.touch(rec, now, wentOnline)

	if err := t.store.Save(ctx, rec); err != nil {
		return err
	}
	if wentOnline {
		t.emitChange(userID, true, now)
	}
	return nil
}

// Disconnect removes a connection id. Removing a non-member id is a no-op,
// not an error. When the last connection goes away the user flips offline,
// lastSeen is stamped, and one presence.changed event is emitted.
func (t *Tracker) Disconnect(ctx context.Context, userID, connectionID string) error {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	rec, err := t.load(ctx, userID)
	if err != nil {
		return err
	}

	delete(rec.Connections, connectionID)
	wentOffline := rec.Online && len(rec.Connections) == 0
	now := t.now()
	if wentOffline {
		rec.Online = false
		t.stampLastSeen(rec, now)
	}

	if err := t.store.Save(ctx, rec); err != nil {
		return err
	}
	if wentOffline {
		t.emitChange(userID, false, now)
	}
	return nil
}

// Heartbeat refreshes userID's activity clock. An offline user is flipped
// online even without a connection id, which covers connectionless polling
// clients; they decay back to offline via the sweep.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) error {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	rec, err := t.load(ctx, userID)
	if err != nil {
		return err
	}

	wentOnline := !rec.Online
	now := t.now()
	t.touch(rec, now, wentOnline)

	if err := t.store.Save(ctx, rec); err != nil {
		return err
	}
	if wentOnline {
		t.emitChange(userID, true, now)
	}
	return nil
}

// Sweep demotes every online user whose last activity predates
// now - threshold. It returns the number of users transitioned. Safe to run
// concurrently with Connect/Heartbeat for the same users; the per-user lock
// decides each race, and a user already offline is skipped so repeated
// sweeps never re-emit the same edge.
func (t *Tracker) Sweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := t.store.OnlineIDs(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-t.threshold)
	swept := 0
	for _, userID := range ids {
		l := t.userLock(userID)
		l.Lock()
		rec, err := t.store.Load(ctx, userID)
		if err != nil {
			l.Unlock()
			return swept, err
		}
		if rec == nil || !rec.Online || !rec.LastActivity.Before(cutoff) {
			l.Unlock()
			continue
		}

		rec.Online = false
		t.stampLastSeen(rec, now)
		if err := t.store.Save(ctx, rec); err != nil {
			l.Unlock()
			return swept, err
		}
		t.emitChange(userID, false, now)
		l.Unlock()
		swept++
	}
	return swept, nil
}

// Status returns the read-side presence view for userID. Unknown users read
// as offline with a zero lastSeen rather than as an error.
func (t *Tracker) Status(ctx context.Context, userID string) (Status, error) {
	rec, err := t.store.Load(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	if rec == nil {
		return Status{UserID: userID}, nil
	}
	return Status{UserID: userID, Online: rec.Online, LastSeen: rec.LastSeen}, nil
}

// OnlineUsers lists the ids of all users currently online.
func (t *Tracker) OnlineUsers(ctx context.Context) ([]string, error) {
	return t.store.OnlineIDs(ctx)
}

// touch records activity at now, flipping the record online when needed.
// While online, lastSeen follows activity so it always reflects the most
// recent moment the user was known to be around.
func (t *Tracker) touch(rec *Record, now time.Time, goingOnline bool) {
	if goingOnline {
		rec.Online = true
	}
	if now.After(rec.LastActivity) {
		rec.LastActivity = now
	}
	t.stampLastSeen(rec, now)
}

// stampLastSeen advances lastSeen, never letting it move backwards even when
// a sweep's clock trails a concurrent heartbeat's.
func (t *Tracker) stampLastSeen(rec *Record, now time.Time) {
	if now.After(rec.LastSeen) {
		rec.LastSeen = now
	}
}

// emitChange publishes the status-change event and keeps the gauges honest.
// Called with the user lock held so per-topic event order matches the
// transition order.
func (t *Tracker) emitChange(userID string, online bool, at time.Time) {
	if online {
		onlineUsers.Inc()
		statusChanges.WithLabelValues("online").Inc()
	} else {
		onlineUsers.Dec()
		statusChanges.WithLabelValues("offline").Inc()
	}
	log.Debug().Str("user_id", userID).Bool("online", online).Msg("presence transition")
	t.bus.Publish(realtime.TopicPresence, realtime.Event{
		Name: realtime.EventPresenceChanged,
		Data: realtime.PresenceChanged{UserID: userID, Online: online, At: at},
	})
}
