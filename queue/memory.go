package queue

import (
	"context"
	"sync"
	"time"
)

type runningTask struct {
	task     *Task
	deadline time.Time
}

type memQueue struct {
	lock       sync.Mutex
	pending    []*Task
	running    map[string]*runningTask
	taskMaxRun time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

/*
New returns a Queue keeping its tasks in memory, for runs whose workers
share the process.

A positive taskMaxRun bounds how long a fold may run: the context Pull
returns with it ends at that deadline, and a fold still running past it
is handed back to pending for another worker to pull. With a zero or
negative taskMaxRun folds may run for as long as they need.
*/
func New(taskMaxRun time.Duration) Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &memQueue{
		running:    make(map[string]*runningTask),
		taskMaxRun: taskMaxRun,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (mq *memQueue) Push(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.lock.Lock()
	defer mq.lock.Unlock()
	mq.pending = append(mq.pending, t)
	return nil
}

func (mq *memQueue) Pull(ctx context.Context) (*Task, context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	mq.lock.Lock()
	defer mq.lock.Unlock()
	now := time.Now()
	mq.requeueStalled(now)
	if len(mq.pending) == 0 {
		return nil, nil, nil, nil
	}
	t := mq.pending[0]
	mq.pending[0] = nil
	mq.pending = mq.pending[1:]
	if mq.taskMaxRun <= 0 {
		mq.running[t.ID] = &runningTask{task: t}
		tctx, cancel := context.WithCancel(mq.ctx)
		return t, tctx, cancel, nil
	}
	deadline := now.Add(mq.taskMaxRun)
	mq.running[t.ID] = &runningTask{task: t, deadline: deadline}
	tctx, cancel := context.WithDeadline(mq.ctx, deadline)
	return t, tctx, cancel, nil
}

func (mq *memQueue) Drop(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.lock.Lock()
	defer mq.lock.Unlock()
	rt, ok := mq.running[id]
	if !ok {
		return nil
	}
	delete(mq.running, id)
	mq.pending = append(mq.pending, rt.task)
	return nil
}

func (mq *memQueue) Complete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.lock.Lock()
	defer mq.lock.Unlock()
	delete(mq.running, id)
	return nil
}

func (mq *memQueue) Count(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	mq.lock.Lock()
	defer mq.lock.Unlock()
	mq.requeueStalled(time.Now())
	return len(mq.pending), len(mq.running), nil
}

func (mq *memQueue) Stop(ctx context.Context) error {
	mq.cancel()
	return nil
}

// requeueStalled must be called holding the lock.
func (mq *memQueue) requeueStalled(now time.Time) {
	if mq.taskMaxRun <= 0 {
		return
	}
	for id, rt := range mq.running {
		if now.Before(rt.deadline) {
			continue
		}
		delete(mq.running, id)
		mq.pending = append(mq.pending, rt.task)
	}
}
