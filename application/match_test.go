package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"hexarena/domain"
	"hexarena/domain/mocks"
)

func newTestMatch(t *testing.T, cfg Config, catalog Catalog, players [2]domain.Player) *Match {
	t.Helper()
	m, err := NewMatch(cfg, catalog, players, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	return m
}

func mustSpawn(t *testing.T, m *Match, team Team, name string, star int, pos domain.Position) *Unit {
	t.Helper()
	u, err := m.Spawn(context.Background(), team, name, star, pos)
	if err != nil {
		t.Fatalf("Spawn(%s, %v) failed: %v", name, pos, err)
	}
	return u
}

func dummyCatalog() mapCatalog {
	return mapCatalog{"Dummy": dummyConfig("Dummy")}
}

func TestNewMatch_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)

	if _, err := NewMatch(DefaultConfig(), nil, [2]domain.Player{p, p}); !errors.Is(err, domain.ErrInitializationFailed) {
		t.Errorf("NewMatch(nil catalog) error = %v, want ErrInitializationFailed", err)
	}
	if _, err := NewMatch(DefaultConfig(), dummyCatalog(), [2]domain.Player{p, nil}); !errors.Is(err, domain.ErrInitializationFailed) {
		t.Errorf("NewMatch(nil player) error = %v, want ErrInitializationFailed", err)
	}
	cfg := DefaultConfig()
	cfg.Speed = 0
	if _, err := NewMatch(cfg, dummyCatalog(), [2]domain.Player{p, p}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("NewMatch(speed 0) error = %v, want ErrInvalidConfig", err)
	}
}

func TestMatch_SpawnUnknownChampion(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{p, p})

	if _, err := m.Spawn(context.Background(), TeamBlue, "Teemo", 1, domain.Position{}); !errors.Is(err, domain.ErrChampionNotFound) {
		t.Errorf("Spawn(Teemo) error = %v, want ErrChampionNotFound", err)
	}
}

func TestMatch_ResolveIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	blue := mocks.NewMockPlayer(ctrl)
	red := mocks.NewMockPlayer(ctrl)
	blue.EXPECT().TakeDamage(2).Times(1)
	red.EXPECT().TakeDamage(1).Times(1)

	ctx := context.Background()
	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{blue, red})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamRed, "Dummy", 2, domain.Position{Col: 12, Row: 4})

	first := m.Resolve(ctx, domain.ReasonTimeout)
	second := m.Resolve(ctx, domain.ReasonTeamWiped)

	if first != second {
		t.Errorf("second Resolve = %+v, want %+v", second, first)
	}
	if first.Reason != domain.ReasonTimeout {
		t.Errorf("Reason = %v, want %v", first.Reason, domain.ReasonTimeout)
	}
	if first.Winner != domain.Draw {
		t.Errorf("Winner = %d, want draw", first.Winner)
	}
	if m.Step(ctx) {
		t.Errorf("Step after Resolve = true, want false")
	}
	select {
	case <-m.Done():
	default:
		t.Errorf("Done is not closed after Resolve")
	}
}

func TestMatch_SameTickWipeResolvesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	blue := mocks.NewMockPlayer(ctrl)
	red := mocks.NewMockPlayer(ctrl)
	blue.EXPECT().TakeDamage(0).Times(1)
	red.EXPECT().TakeDamage(2 + 3).Times(1)

	ctx := context.Background()
	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{blue, red})
	mustSpawn(t, m, TeamBlue, "Dummy", 2, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 2, Row: 0})
	r1 := mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 12, Row: 4})
	r2 := mustSpawn(t, m, TeamRed, "Dummy", 3, domain.Position{Col: 10, Row: 4})

	if n := m.RunTicks(ctx, 5); n != 5 {
		t.Fatalf("RunTicks = %d, want 5", n)
	}

	// 同じティックで赤の2体が致死ダメージを受けた状態にする
	r1.HP = -1
	r2.HP = -10
	if m.Step(ctx) {
		t.Fatalf("Step = true, want resolution in the same tick")
	}

	out, ok := m.Outcome()
	if !ok {
		t.Fatalf("Outcome not resolved")
	}
	if out.Reason != domain.ReasonTeamWiped {
		t.Errorf("Reason = %v, want %v", out.Reason, domain.ReasonTeamWiped)
	}
	if out.Winner != int(TeamBlue) {
		t.Errorf("Winner = %d, want %d", out.Winner, TeamBlue)
	}
	if out.Damage != [2]int{0, 5} {
		t.Errorf("Damage = %v, want [0 5]", out.Damage)
	}
	if out.Survivors != [2]int{2, 0} {
		t.Errorf("Survivors = %v, want [2 0]", out.Survivors)
	}
	if out.Ticks != 6 {
		t.Errorf("Ticks = %d, want 6", out.Ticks)
	}
}

func TestMatch_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	blue := mocks.NewMockPlayer(ctrl)
	red := mocks.NewMockPlayer(ctrl)
	blue.EXPECT().TakeDamage(3).Times(1)
	red.EXPECT().TakeDamage(1).Times(1)

	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	m := newTestMatch(t, cfg, dummyCatalog(), [2]domain.Player{blue, red})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamRed, "Dummy", 3, domain.Position{Col: 12, Row: 4})

	out := m.RunUntilResolved(context.Background())

	if out.Reason != domain.ReasonTimeout {
		t.Errorf("Reason = %v, want %v", out.Reason, domain.ReasonTimeout)
	}
	if out.Ticks != 20 {
		t.Errorf("Ticks = %d, want 20", out.Ticks)
	}
	if out.Elapsed != time.Second {
		t.Errorf("Elapsed = %v, want 1s", out.Elapsed)
	}
}

func TestMatch_EmptyTeamResolvesOnFirstStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	blue := mocks.NewMockPlayer(ctrl)
	red := mocks.NewMockPlayer(ctrl)
	blue.EXPECT().TakeDamage(0).Times(1)
	red.EXPECT().TakeDamage(3).Times(1)

	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{blue, red})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})

	if m.Step(context.Background()) {
		t.Errorf("Step = true, want immediate resolution")
	}
	if out, _ := m.Outcome(); out.Winner != int(TeamBlue) {
		t.Errorf("Winner = %d, want %d", out.Winner, TeamBlue)
	}
}

func TestMatch_ApproachThenAttack(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	p.EXPECT().TakeDamage(gomock.Any()).AnyTimes()

	seeker := dummyConfig("Seeker")
	seeker.AttackDamage = 10
	post := dummyConfig("Post")
	post.Range = 10

	cfg := DefaultConfig()
	cfg.Speed = 2
	ctx := context.Background()
	m := newTestMatch(t, cfg, mapCatalog{"Seeker": seeker, "Post": post}, [2]domain.Player{p, p})
	attacker := mustSpawn(t, m, TeamBlue, "Seeker", 1, domain.Position{Col: 0, Row: 0})
	target := mustSpawn(t, m, TeamRed, "Post", 1, domain.Position{Col: 8, Row: 0})
	if d := attacker.Position.Distance(target.Position); d != 4 {
		t.Fatalf("initial distance = %d, want 4", d)
	}

	wall := func(sim time.Duration) time.Duration {
		return time.Duration(float64(sim) / cfg.Speed)
	}
	var reachedAt, firstHitAt time.Duration = -1, -1
	for range 200 {
		if !m.Step(ctx) {
			break
		}
		now := m.World().Now()
		if reachedAt < 0 && attacker.Position.Distance(target.Position) <= attacker.Range {
			reachedAt = now
		}
		if firstHitAt < 0 && target.HP < target.MaxHP {
			firstHitAt = now
			break
		}
	}

	if reachedAt < 0 || firstHitAt < 0 {
		t.Fatalf("reachedAt = %v, firstHitAt = %v", reachedAt, firstHitAt)
	}
	if wall(reachedAt) > 2*time.Second {
		t.Errorf("reached range after %v wall time, want within 2s", wall(reachedAt))
	}
	if firstHitAt < reachedAt {
		t.Errorf("first attack at %v landed before reaching range at %v", firstHitAt, reachedAt)
	}
	if reachedAt != 2500*time.Millisecond {
		t.Errorf("reachedAt = %v, want 2.5s", reachedAt)
	}
	if firstHitAt != 3500*time.Millisecond {
		t.Errorf("firstHitAt = %v, want 3.5s", firstHitAt)
	}
}

func TestMatch_AttackRetargetsWithoutRestart(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	p.EXPECT().TakeDamage(gomock.Any()).AnyTimes()

	ctx := context.Background()
	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{p, p})
	blue := mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})
	first := mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 10, Row: 0})
	second := mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 12, Row: 0})

	// 0.5s に 1 歩進み、次の移動は 1.5s
	m.RunTicks(ctx, 28)
	if got, want := blue.Position, (domain.Position{Col: 2, Row: 0}); got != want {
		t.Fatalf("Position at %v = %v, want %v", m.World().Now(), got, want)
	}

	// 青が監督されたあとに同じティックで対象が死ぬ
	first.HP = -1
	m.RunTicks(ctx, 1)
	if !first.IsDead() {
		t.Fatalf("first target still alive at %v", m.World().Now())
	}

	m.RunTicks(ctx, 1)
	if got := m.World().Now(); got != 1500*time.Millisecond {
		t.Fatalf("Now = %v, want 1.5s", got)
	}
	if blue.Position == (domain.Position{Col: 2, Row: 0}) {
		t.Errorf("unit did not move at %v after its target died", m.World().Now())
	}
	if got := blue.Target(); got != second {
		t.Errorf("Target = %v, want %v", got, second)
	}
}

func TestMatch_AttackWaitsHalfCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	p.EXPECT().TakeDamage(gomock.Any()).AnyTimes()

	striker := dummyConfig("Striker")
	striker.AttackDamage = 10
	striker.AttackSpeed = 0.5
	ctx := context.Background()
	m := newTestMatch(t, DefaultConfig(), mapCatalog{"Striker": striker, "Dummy": dummyConfig("Dummy")}, [2]domain.Player{p, p})
	a := mustSpawn(t, m, TeamBlue, "Striker", 1, domain.Position{Col: 0, Row: 0})
	b := mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 2, Row: 0})

	// 攻撃速度 0.5 なので半周期は 1 秒、1 周期は 2 秒
	m.RunTicks(ctx, 19)
	if b.HP != b.MaxHP {
		t.Fatalf("attack landed before half cycle at %v", m.World().Now())
	}
	m.RunTicks(ctx, 1)
	if got := b.MaxHP - b.HP; got != 10 {
		t.Errorf("damage after 1s = %v, want 10", got)
	}
	if got := a.Mana; got != 8 {
		t.Errorf("Mana = %v, want 8", got)
	}
	m.RunTicks(ctx, 40)
	if got := b.MaxHP - b.HP; got != 20 {
		t.Errorf("damage after 3s = %v, want 20", got)
	}
}

func TestMatch_DeathCancelsUnitTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	p.EXPECT().TakeDamage(gomock.Any()).AnyTimes()

	striker := dummyConfig("Striker")
	striker.AttackDamage = 10
	ctx := context.Background()
	m := newTestMatch(t, DefaultConfig(), mapCatalog{"Striker": striker, "Dummy": dummyConfig("Dummy")}, [2]domain.Player{p, p})
	a := mustSpawn(t, m, TeamBlue, "Striker", 1, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 12, Row: 0})
	b := mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 2, Row: 0})

	m.RunTicks(ctx, 2)
	a.HP = -1
	m.RunTicks(ctx, 40)

	if !a.IsDead() || a.State() != StateDead {
		t.Errorf("attacker state = %v, want dead", a.State())
	}
	if b.HP != b.MaxHP {
		t.Errorf("dead attacker still dealt damage: HP = %v", b.HP)
	}
	if got, _ := m.Outcome(); got.Reason != "" {
		t.Errorf("match resolved with blue units left: %+v", got)
	}
}

func TestMatch_BattleIsDeterministic(t *testing.T) {
	run := func() domain.Outcome {
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPlayer(ctrl)
		p.EXPECT().TakeDamage(gomock.Any()).Times(2)

		m := newTestMatch(t, DefaultConfig(), championCatalog(), [2]domain.Player{p, p})
		mustSpawn(t, m, TeamBlue, "Ahri", 1, domain.Position{Col: 0, Row: 0})
		mustSpawn(t, m, TeamBlue, "Ahri", 1, domain.Position{Col: 2, Row: 0})
		mustSpawn(t, m, TeamBlue, "Leona", 2, domain.Position{Col: 4, Row: 0})
		mustSpawn(t, m, TeamRed, "Ahri", 1, domain.Position{Col: 12, Row: 4})
		mustSpawn(t, m, TeamRed, "Poppy", 1, domain.Position{Col: 4, Row: 4})
		mustSpawn(t, m, TeamRed, "Ziggs", 2, domain.Position{Col: 8, Row: 4})
		return m.RunUntilResolved(context.Background())
	}

	first := run()
	second := run()
	first.MatchID, second.MatchID = "", ""
	if first != second {
		t.Errorf("outcomes differ: %+v vs %+v", first, second)
	}
	if first.Ticks == 0 {
		t.Errorf("match resolved without running")
	}
}

func TestMatch_RunPublishesSnapshotsAndOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)
	p.EXPECT().TakeDamage(gomock.Any()).Times(2)

	hub := domain.NewHub(256)
	frames := hub.Subscribe()

	cfg := DefaultConfig()
	cfg.Speed = 1000
	cfg.Timeout = time.Second
	m, err := NewMatch(cfg, dummyCatalog(), [2]domain.Player{p, p}, WithLogger(discardLogger()), WithPublisher(hub), WithID("match-1"))
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 12, Row: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Reason != domain.ReasonTimeout {
		t.Errorf("Reason = %v, want %v", out.Reason, domain.ReasonTimeout)
	}

	hub.Unsubscribe(frames)
	var last *domain.Envelope
	snapshots := 0
	for data := range frames {
		e, err := domain.ParseEnvelope(data)
		if err != nil {
			t.Fatalf("ParseEnvelope failed: %v", err)
		}
		if e.Kind == domain.FrameSnapshot {
			snapshots++
		}
		last = e
	}
	if snapshots == 0 {
		t.Errorf("no snapshot frames published")
	}
	if last == nil || last.Kind != domain.FrameOutcome {
		t.Fatalf("last frame = %+v, want outcome", last)
	}
	if last.MatchID != "match-1" || last.Outcome.Reason != domain.ReasonTimeout {
		t.Errorf("outcome frame = %+v", last.Outcome)
	}
}

func TestMatch_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)

	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{p, p})
	mustSpawn(t, m, TeamBlue, "Dummy", 1, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 12, Row: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	if _, err := m.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run error = %v, want DeadlineExceeded", err)
	}
	if _, ok := m.Outcome(); ok {
		t.Errorf("match resolved after cancellation")
	}
}

func TestMatch_Snapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlayer(ctrl)

	m := newTestMatch(t, DefaultConfig(), dummyCatalog(), [2]domain.Player{p, p})
	u := mustSpawn(t, m, TeamBlue, "Dummy", 2, domain.Position{Col: 0, Row: 0})
	mustSpawn(t, m, TeamRed, "Dummy", 1, domain.Position{Col: 12, Row: 4})
	m.World().GrantShield(context.Background(), u, 25, time.Second)

	snap := m.Snapshot()
	if len(snap.Units) != 2 {
		t.Fatalf("len(Units) = %d, want 2", len(snap.Units))
	}
	got := snap.Units[0]
	if got.ID != u.ID || got.Star != 2 || got.Shield != 25 || got.HP != 1800 {
		t.Errorf("unit snapshot = %+v", got)
	}
	if got.Center != m.World().Layout().Center(u.Position) {
		t.Errorf("Center = %v, want %v", got.Center, m.World().Layout().Center(u.Position))
	}
}
