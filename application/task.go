package application

import (
	"container/heap"
	"context"
	"time"
)

// TaskFunc は待機が明けたときに呼ばれる処理です。
type TaskFunc func(ctx context.Context, t *Task)

// Task はユニットの攻撃やスキルのような、待機を挟んで進む一連の処理のハンドルです。
// Cancel されたタスクの待機中の処理は二度と呼ばれません。
type Task struct {
	name      string
	sched     *Scheduler
	pending   int
	cancelled bool
}

func (t *Task) Name() string { return t.name }

// After は d 経過後に fn を呼ぶよう予約します。キャンセル済みなら何もしません。
func (t *Task) After(d time.Duration, fn TaskFunc) {
	if t.cancelled || t.sched.closed {
		return
	}
	if d < 0 {
		d = 0
	}
	t.pending++
	t.sched.seq++
	heap.Push(&t.sched.queue, &timer{
		due:  t.sched.now + d,
		seq:  t.sched.seq,
		task: t,
		fn:   fn,
	})
}

func (t *Task) Cancel() { t.cancelled = true }

func (t *Task) Cancelled() bool { return t.cancelled }

// Active は予約済みの処理が残っているかを返します。
func (t *Task) Active() bool { return !t.cancelled && t.pending > 0 }

type timer struct {
	due  time.Duration
	seq  uint64
	task *Task
	fn   TaskFunc
}

// timerQueue は期限、同じ期限なら予約順に並ぶ優先度付きキューです。
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x any)   { *q = append(*q, x.(*timer)) }
func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Scheduler はシミュレーション時間でタスクの待機を管理します。
// シミュレーションのゴルーチンからのみ使います。
type Scheduler struct {
	now    time.Duration
	seq    uint64
	queue  timerQueue
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) NewTask(name string) *Task {
	return &Task{name: name, sched: s}
}

// Now は現在のシミュレーション時間です。処理の実行中はその処理の予約時刻を返します。
func (s *Scheduler) Now() time.Duration { return s.now }

// Advance は時間を to まで進め、期限が来た処理を順に実行して実行数を返します。
// 実行中に予約された処理も to までに期限が来るなら同じ呼び出しで実行します。
func (s *Scheduler) Advance(ctx context.Context, to time.Duration) int {
	fired := 0
	for len(s.queue) > 0 && s.queue[0].due <= to {
		tm := heap.Pop(&s.queue).(*timer)
		tm.task.pending--
		if tm.task.cancelled || s.closed {
			continue
		}
		if tm.due > s.now {
			s.now = tm.due
		}
		tm.fn(ctx, tm.task)
		fired++
	}
	if to > s.now {
		s.now = to
	}
	return fired
}

// Close は予約済みの処理をすべて破棄し、以後の予約を受け付けなくします。
func (s *Scheduler) Close() {
	s.closed = true
	for _, tm := range s.queue {
		tm.task.cancelled = true
	}
	s.queue = nil
}

func (s *Scheduler) Pending() int { return len(s.queue) }
