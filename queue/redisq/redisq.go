/*
Package redisq provides a queue.Queue of fold tasks backed by redis, so that
workers on several hosts can share the folds of a cross-validation run.
*/
package redisq

import (
	"context"
	"fmt"
	"time"

	"github.com/pbanos/sapling/queue"
	redis "gopkg.in/redis.v5"
)

/*
EncodeDecoder is an interface for objects
that allow encoding tasks as slices of bytes and decoding
them back to tasks. It is used to serialize tasks into a
representation to store on redis
*/
type EncodeDecoder interface {

	//Encode receives a *queue.Task
	// and returns a slice of bytes with the task encoded or an
	//error if the encoding could not be performed for
	//some reason.
	Encode(context.Context, *queue.Task) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *queue.Task decoded from the slice of bytes
	//or an error if the decoding could not be performed
	//for some reason.
	Decode(context.Context, []byte) (*queue.Task, error)
}

type redisQ struct {
	id         string
	rc         *redis.Client
	allTaskCtx context.Context
	allTaskCF  context.CancelFunc
	taskMaxRun time.Duration
	EncodeDecoder
}

// Moves the oldest pending task to the running list and marks it as
// running, with an expiration in milliseconds if ARGV[2] is positive.
const pullScript = `
local id = redis.call("RPOPLPUSH", KEYS[1], KEYS[2])
if not id then
    return false
end
local mark = ARGV[1] .. id .. ":running"
if tonumber(ARGV[2]) > 0 then
    redis.call("SET", mark, "true", "PX", ARGV[2])
else
    redis.call("SET", mark, "true")
end
return id
`

// Moves a running task back to the pending list.
const dropScript = `
if redis.call("LREM", KEYS[1], 1, ARGV[1]) == 0 then
    return 0
end
redis.call("DEL", KEYS[3])
return redis.call("LPUSH", KEYS[2], ARGV[1])
`

// Removes a running task with its data.
const completeScript = `
if redis.call("LREM", KEYS[1], 1, ARGV[1]) == 0 then
    return 0
end
return redis.call("DEL", KEYS[2], KEYS[3])
`

const countScript = `return {redis.call("LLEN", KEYS[1]), redis.call("LLEN", KEYS[2])}`

/*
New returns a queue.Queue that uses the given redis client as a
backend. It uses the given id to prefix the keys used on the
redis client to keep the queue's data, which are the following:
  * id:pending is the key to a list with the ids of the pending tasks,
  pulled in the order they were pushed.
  * id:running is the key to a list with the ids of the running tasks
  * id:task:task_id:data is the key to a string that holds the task data.
  Tasks are encoded and decoded using the given EncodeDecoder.
  * id:task:task_id:running is a mark that the task is running,
  that expires in the given taskMaxRun duration. Once the key expires
  a cleanup process will understand the task was dropped by a failing
  worker and push it back to pending. Setting it to the zero value
  prevents the key from expiring and the cleanup process from taking
  place at all.

The returned queue is secure for concurrent use by multiple goroutines
and processes.
*/
func New(id string, rc *redis.Client, taskMaxRun time.Duration, encDec EncodeDecoder) queue.Queue {
	ctx, cf := context.WithCancel(context.Background())
	rq := &redisQ{
		id:            id,
		rc:            rc,
		allTaskCtx:    ctx,
		allTaskCF:     cf,
		taskMaxRun:    taskMaxRun,
		EncodeDecoder: encDec,
	}
	if taskMaxRun > 0 {
		go rq.dropTimedOutTasks()
	}
	return rq
}

func (rq *redisQ) Push(ctx context.Context, t *queue.Task) error {
	data, err := rq.Encode(ctx, t)
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID, err)
	}
	dataKey := rq.taskDataKey(t.ID)
	ok, err := rq.rc.SetNX(dataKey, string(data), 0).Result()
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID, err)
	}
	if !ok {
		return fmt.Errorf("pushing task %s to queue: key %q already exists", t.ID, dataKey)
	}
	_, err = rq.rc.LPush(rq.pendingListKey(), t.ID).Result()
	if err != nil {
		rq.rc.Del(dataKey)
		return fmt.Errorf("pushing task %s to queue: %v", t.ID, err)
	}
	return nil
}

func (rq *redisQ) Pull(ctx context.Context) (*queue.Task, context.Context, context.CancelFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		res, err := rq.rc.Eval(
			pullScript,
			[]string{rq.pendingListKey(), rq.runningListKey()},
			rq.taskKeyPrefix(""),
			int64(rq.taskMaxRun/time.Millisecond),
		).Result()
		if err == redis.Nil {
			return nil, nil, nil, nil
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("pulling task from %q: %v", rq.pendingListKey(), err)
		}
		id, ok := res.(string)
		if !ok {
			return nil, nil, nil, fmt.Errorf("pulling task from %q: unexpected id %v (%T)", rq.pendingListKey(), res, res)
		}
		data, err := rq.rc.Get(rq.taskDataKey(id)).Result()
		if err != nil {
			rq.Complete(ctx, id)
			continue
		}
		t, err := rq.Decode(ctx, []byte(data))
		if err != nil {
			rq.Complete(ctx, id)
			continue
		}
		var tctx context.Context
		var tcf context.CancelFunc
		if rq.taskMaxRun == 0 {
			tctx, tcf = context.WithCancel(rq.allTaskCtx)
		} else {
			tctx, tcf = context.WithTimeout(rq.allTaskCtx, rq.taskMaxRun)
		}
		return t, tctx, tcf, nil
	}
}

func (rq *redisQ) Drop(ctx context.Context, id string) error {
	_, err := rq.rc.Eval(
		dropScript,
		[]string{rq.runningListKey(), rq.pendingListKey(), rq.taskRunningKey(id)},
		id,
	).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("dropping %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Complete(ctx context.Context, id string) error {
	_, err := rq.rc.Eval(
		completeScript,
		[]string{rq.runningListKey(), rq.taskRunningKey(id), rq.taskDataKey(id)},
		id,
	).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("completing %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Count(context.Context) (int, int, error) {
	// count both lists at the same time to prevent a task
	// moving between them from triggering a false "work finished" event
	v, err := rq.rc.Eval(countScript, []string{rq.pendingListKey(), rq.runningListKey()}).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counting tasks: %v", err)
	}
	counts, ok := v.([]interface{})
	if !ok || len(counts) != 2 {
		return 0, 0, fmt.Errorf("counting tasks: redis returned %v instead of 2 counts", v)
	}
	p, ok := counts[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting tasks: cannot extract integer pending tasks count from %v (%T)", counts[0], counts[0])
	}
	r, ok := counts[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting tasks: cannot extract integer running tasks count from %v (%T)", counts[1], counts[1])
	}
	return int(p), int(r), nil
}

// Stop cancels the contexts of all pulled tasks
// and the cleanup of timed out tasks.
func (rq *redisQ) Stop(context.Context) error {
	rq.allTaskCF()
	return nil
}

func (rq *redisQ) String() string {
	return fmt.Sprintf("{redisQ %s}", rq.id)
}

func (rq *redisQ) taskKeyPrefix(taskID string) string {
	return fmt.Sprintf("%s:task:%s", rq.id, taskID)
}

func (rq *redisQ) taskDataKey(taskID string) string {
	return rq.taskKeyPrefix(taskID) + ":data"
}

func (rq *redisQ) taskRunningKey(taskID string) string {
	return rq.taskKeyPrefix(taskID) + ":running"
}

func (rq *redisQ) pendingListKey() string {
	return fmt.Sprintf("%s:pending", rq.id)
}

func (rq *redisQ) runningListKey() string {
	return fmt.Sprintf("%s:running", rq.id)
}

func (rq *redisQ) dropTimedOutTasks() {
	ticker := time.NewTicker(rq.taskMaxRun / 2)
	defer ticker.Stop()
	for {
		ids, _ := rq.rc.LRange(rq.runningListKey(), 0, -1).Result()
		for _, id := range ids {
			running, err := rq.rc.Exists(rq.taskRunningKey(id)).Result()
			if err == nil && !running {
				rq.Drop(rq.allTaskCtx, id)
			}
			if rq.allTaskCtx.Err() != nil {
				return
			}
		}
		select {
		case <-rq.allTaskCtx.Done():
			return
		case <-ticker.C:
		}
	}
}
