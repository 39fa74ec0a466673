package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pbanos/sapling/checkpoint"
	cjson "github.com/pbanos/sapling/checkpoint/json"
	"github.com/pbanos/sapling/checkpoint/redisstore"
	"github.com/pbanos/sapling/queue"
	qjson "github.com/pbanos/sapling/queue/json"
	"github.com/pbanos/sapling/queue/redisq"
	"github.com/spf13/cobra"
	redis "gopkg.in/redis.v5"
)

// storeFlags select where fold tasks and checkpoints are kept.
type storeFlags struct {
	redisAddr     string
	redisDB       int
	redisPrefix   string
	checkpointDir string
	client        *redis.Client
}

func (sf *storeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&(sf.redisAddr), "redis-addr", "", "host:port of a redis server on which to keep fold tasks and checkpoints, to share them among workers")
	cmd.PersistentFlags().IntVar(&(sf.redisDB), "redis-db", 0, "redis database number")
	cmd.PersistentFlags().StringVar(&(sf.redisPrefix), "redis-prefix", "sapling", "prefix for the keys on redis")
	cmd.PersistentFlags().StringVar(&(sf.checkpointDir), "checkpoints", "", "path to a directory on which to keep checkpoints as JSON files (takes precedence over redis)")
}

func (rcc *rootCmdConfig) redisClient(sf *storeFlags) (*redis.Client, error) {
	if sf.client != nil {
		return sf.client, nil
	}
	rcc.Logf("Connecting to redis at %s...", sf.redisAddr)
	rc := redis.NewClient(&redis.Options{Addr: sf.redisAddr, DB: sf.redisDB})
	_, err := rc.Ping().Result()
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v", sf.redisAddr, err)
	}
	rcc.onClose(rc.Close)
	sf.client = rc
	return rc, nil
}

/*
checkpointStore returns a store of checkpoints on the checkpoint directory
if set, else on redis if an address is set, else in memory.
*/
func (rcc *rootCmdConfig) checkpointStore(sf *storeFlags) (checkpoint.Store, error) {
	if sf.checkpointDir != "" {
		rcc.Logf("Keeping checkpoints on %s", sf.checkpointDir)
		return cjson.NewFileStore(sf.checkpointDir)
	}
	if sf.redisAddr != "" {
		rc, err := rcc.redisClient(sf)
		if err != nil {
			return nil, err
		}
		return redisstore.New(rc, sf.redisPrefix+":checkpoints", cjson.EncodeDecoder{}), nil
	}
	rcc.Logf("Keeping checkpoints in memory")
	return checkpoint.NewMemoryStore(0), nil
}

/*
foldQueue returns the queue of the run with the given id: on redis if an
address is set, else in memory. Either way folds running longer than
taskMaxRun go back to pending.
*/
func (rcc *rootCmdConfig) foldQueue(sf *storeFlags, runID string, taskMaxRun time.Duration) (queue.Queue, error) {
	if sf.redisAddr == "" {
		return queue.New(taskMaxRun), nil
	}
	rc, err := rcc.redisClient(sf)
	if err != nil {
		return nil, err
	}
	return redisq.New(fmt.Sprintf("%s:runs:%s", sf.redisPrefix, runID), rc, taskMaxRun, qjson.New()), nil
}

/*
loadCheckpoint takes a reference to a checkpoint, either the path to a JSON
file or, with a redis address set, a checkpoint ID, and returns the
checkpoint.
*/
func (rcc *rootCmdConfig) loadCheckpoint(ctx context.Context, sf *storeFlags, ref string) (*checkpoint.Checkpoint, error) {
	if strings.HasSuffix(ref, ".json") || sf.redisAddr == "" {
		rcc.Logf("Reading checkpoint from %s...", ref)
		return cjson.ReadCheckpointFromFile(ref)
	}
	store, err := rcc.checkpointStore(&storeFlags{redisAddr: sf.redisAddr, redisDB: sf.redisDB, redisPrefix: sf.redisPrefix, client: sf.client})
	if err != nil {
		return nil, err
	}
	rcc.Logf("Retrieving checkpoint %s from redis...", ref)
	c, err := store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("checkpoint %s not found", ref)
	}
	return c, nil
}
