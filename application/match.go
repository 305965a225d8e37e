package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hexarena/domain"
)

var ErrMatchResolved = errors.New("match already resolved")

// Publisher はエンコード済みのフレームを観戦者に配信します。domain.Hub が満たします。
type Publisher interface {
	Publish(ctx context.Context, data []byte) int
}

type Option func(*Match)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Match) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(m *Match) {
		if r != nil {
			m.registry = r
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(m *Match) { m.publisher = p }
}

func WithID(id domain.MatchID) Option {
	return func(m *Match) {
		if !id.IsEmpty() {
			m.ID = id
		}
	}
}

// Match は1回の対戦です。固定ティックでシミュレーションを進め、決着を一度だけ確定させます。
type Match struct {
	ID domain.MatchID

	cfg         Config
	world       *World
	sched       *Scheduler
	catalog     Catalog
	registry    *Registry
	players     [2]domain.Player
	controllers []*Controller
	publisher   Publisher
	logger      *slog.Logger

	tick     int
	started  bool
	seq      uint32
	resolved atomic.Bool
	outcome  domain.Outcome
	done     chan struct{}
}

func NewMatch(cfg Config, catalog Catalog, players [2]domain.Player, opts ...Option) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is nil", domain.ErrInitializationFailed)
	}
	if players[0] == nil || players[1] == nil {
		return nil, fmt.Errorf("%w: match requires two players", domain.ErrInitializationFailed)
	}

	m := &Match{
		ID:       domain.NewMatchID(),
		cfg:      cfg,
		sched:    NewScheduler(),
		catalog:  catalog,
		registry: DefaultRegistry(),
		players:  players,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("match_id", m.ID.String())
	m.world = NewWorld(cfg.Width, cfg.Height, cfg.Layout, m.sched, m.logger)
	m.world.OnTeamEmpty(func(ctx context.Context, team Team) {
		m.logger.InfoContext(ctx, "team wiped", "team", team, "t", m.world.Now())
		m.resolve(ctx, domain.ReasonTeamWiped)
	})
	return m, nil
}

func (m *Match) Config() Config { return m.cfg }

// World はシミュレーションの盤面です。Step と並行して読む場合は Snapshot を使います。
func (m *Match) World() *World { return m.world }

// Done は決着すると閉じるチャネルを返します。
func (m *Match) Done() <-chan struct{} { return m.done }

// Spawn はカタログから name のユニットを作って team の pos に配置します。
// 座標は盤面座標で、陣営による反転は行いません。
func (m *Match) Spawn(ctx context.Context, team Team, name string, star int, pos domain.Position) (*Unit, error) {
	cfg, err := m.catalog.UnitConfig(name)
	if err != nil {
		return nil, err
	}
	u, err := NewUnit(cfg, star)
	if err != nil {
		return nil, err
	}

	m.world.mu.Lock()
	defer m.world.mu.Unlock()
	if m.resolved.Load() {
		return nil, ErrMatchResolved
	}
	if err := m.world.AddUnit(u, team, pos); err != nil {
		return nil, err
	}
	m.controllers = append(m.controllers, NewController(u, m.world, m.registry.Build(cfg), m.logger))
	m.logger.InfoContext(ctx, "unit spawned", "unit_id", u.ID, "unit", u.Name, "team", team, "star", star, "pos", pos)
	return u, nil
}

// Step はシミュレーションを1ティック進めます。決着済みなら false を返します。
// 1ティックの中では、時間を進めて期限が来た待機を処理し、投射物を動かし、
// 最後に ID 順で全ユニットを監督します。
func (m *Match) Step(ctx context.Context) bool {
	m.world.mu.Lock()
	defer m.world.mu.Unlock()

	if m.resolved.Load() {
		return false
	}
	if !m.started {
		m.started = true
		if m.world.TeamSize(TeamBlue) == 0 || m.world.TeamSize(TeamRed) == 0 {
			m.resolve(ctx, domain.ReasonTeamWiped)
			return false
		}
		m.supervise(ctx)
	}

	m.tick++
	now := time.Duration(m.tick) * m.cfg.TickDuration
	m.sched.Advance(ctx, now)
	if !m.resolved.Load() {
		m.world.AdvanceProjectiles(ctx)
	}
	if !m.resolved.Load() {
		m.supervise(ctx)
	}
	if !m.resolved.Load() && now >= m.cfg.Timeout {
		m.logger.InfoContext(ctx, "match timed out", "t", now)
		m.resolve(ctx, domain.ReasonTimeout)
	}
	return !m.resolved.Load()
}

// RunTicks は最大 n ティック進め、実際に進めたティック数を返します。
func (m *Match) RunTicks(ctx context.Context, n int) int {
	for i := range n {
		if !m.Step(ctx) {
			return i
		}
	}
	return n
}

// RunUntilResolved は壁時計を待たずに決着までシミュレーションを進めます。
func (m *Match) RunUntilResolved(ctx context.Context) domain.Outcome {
	for ctx.Err() == nil && m.Step(ctx) {
	}
	out, _ := m.Outcome()
	return out
}

func (m *Match) supervise(ctx context.Context) {
	for _, c := range m.controllers {
		if m.resolved.Load() {
			return
		}
		c.Supervise(ctx)
	}
	alive := m.controllers[:0]
	for _, c := range m.controllers {
		if !c.unit.IsDead() {
			alive = append(alive, c)
		}
	}
	m.controllers = alive
}

// Resolve は対戦を reason で決着させます。すでに決着している場合は何もせず、確定済みの結果を返します。
func (m *Match) Resolve(ctx context.Context, reason domain.ResolveReason) domain.Outcome {
	m.world.mu.Lock()
	defer m.world.mu.Unlock()
	m.resolve(ctx, reason)
	return m.outcome
}

// resolve は world.mu を保持した状態で呼びます。
func (m *Match) resolve(ctx context.Context, reason domain.ResolveReason) {
	if !m.resolved.CompareAndSwap(false, true) {
		return
	}
	m.sched.Close()
	for _, c := range m.controllers {
		c.Cancel()
	}
	m.world.clearProjectiles()

	out := computeOutcome(m.world, reason)
	out.MatchID = m.ID
	out.Ticks = m.tick
	out.Elapsed = m.world.Now()
	m.outcome = out

	for team, p := range m.players {
		p.TakeDamage(out.Damage[team])
	}

	trace.SpanFromContext(ctx).AddEvent("match.resolved", trace.WithAttributes(
		attribute.String("match.reason", string(reason)),
		attribute.Int("match.winner", out.Winner),
		attribute.IntSlice("match.damage", out.Damage[:]),
	))
	m.logger.InfoContext(ctx, "match resolved",
		"reason", reason,
		"winner", out.Winner,
		"damage_blue", out.Damage[TeamBlue],
		"damage_red", out.Damage[TeamRed],
		"survivors_blue", out.Survivors[TeamBlue],
		"survivors_red", out.Survivors[TeamRed],
		"t", out.Elapsed,
	)
	close(m.done)
}

// Outcome は決着済みなら結果を返します。
func (m *Match) Outcome() (domain.Outcome, bool) {
	m.world.mu.RLock()
	defer m.world.mu.RUnlock()
	return m.outcome, m.resolved.Load()
}

// Run は壁時計に合わせてシミュレーションを進め、決着するか ctx が終わるまでブロックします。
// Publisher が設定されていれば、スナップショットを SnapshotInterval ごとに配信します。
func (m *Match) Run(ctx context.Context) (domain.Outcome, error) {
	ctx, span := tracer.Start(ctx, "match.run", trace.WithAttributes(attribute.String("match.id", m.ID.String())))
	defer span.End()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return m.simulate(ctx)
	})
	if m.publisher != nil {
		eg.Go(func() error {
			m.broadcast(ctx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return domain.Outcome{}, err
	}
	out, _ := m.Outcome()
	return out, nil
}

func (m *Match) simulate(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !m.Step(ctx) {
				return nil
			}
		}
	}
}

func (m *Match) broadcast(ctx context.Context) {
	interval := m.cfg.SnapshotInterval
	if interval <= 0 {
		interval = m.cfg.TickInterval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			m.publishSnapshot(ctx)
			m.publishOutcome(ctx)
			return
		case <-ticker.C:
			m.publishSnapshot(ctx)
		}
	}
}

func (m *Match) publishSnapshot(ctx context.Context) {
	snap := m.Snapshot()
	m.seq++
	data, err := domain.EncodeSnapshotMessage(m.seq, &snap)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to encode snapshot", "error", err)
		return
	}
	m.publisher.Publish(ctx, data)
}

func (m *Match) publishOutcome(ctx context.Context) {
	out, ok := m.Outcome()
	if !ok {
		return
	}
	m.seq++
	data, err := domain.EncodeOutcomeMessage(m.seq, &out)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to encode outcome", "error", err)
		return
	}
	m.publisher.Publish(ctx, data)
}

// Snapshot は現在の盤面の状態を返します。シミュレーションと並行して呼べます。
func (m *Match) Snapshot() domain.Snapshot {
	m.world.mu.RLock()
	defer m.world.mu.RUnlock()

	w := m.world
	now := w.Now()
	snap := domain.Snapshot{
		MatchID:     m.ID,
		Tick:        m.tick,
		Elapsed:     now,
		Units:       make([]domain.UnitSnapshot, 0, len(w.units)),
		Projectiles: make([]domain.ProjectileSnapshot, 0, len(w.projectiles)),
		Resolved:    m.resolved.Load(),
	}
	for _, u := range w.units {
		targetID := 0
		if t := u.Target(); t != nil {
			targetID = t.ID
		}
		snap.Units = append(snap.Units, domain.UnitSnapshot{
			ID:       u.ID,
			Name:     u.Name,
			Team:     int(u.Team),
			Star:     u.Star,
			State:    u.state.String(),
			Position: u.Position,
			Center:   w.layout.Center(u.Position),
			HP:       u.HP,
			MaxHP:    u.MaxHP,
			Mana:     u.Mana,
			MaxMana:  u.MaxMana,
			Shield:   u.ShieldTotal(now),
			TargetID: targetID,
		})
	}
	for _, p := range w.projectiles {
		ownerID := 0
		if p.Owner != nil {
			ownerID = p.Owner.ID
		}
		snap.Projectiles = append(snap.Projectiles, domain.ProjectileSnapshot{
			ID:       p.ID,
			OwnerID:  ownerID,
			Position: p.Position,
			Size:     p.Size,
			Image:    p.Image,
		})
	}
	return snap
}
