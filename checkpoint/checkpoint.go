/*
Package checkpoint keeps trained models: their hyperparameters together with
a snapshot of their parameter values, so that they can be rebuilt later to
evaluate or predict.
*/
package checkpoint

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/model"
)

/*
Checkpoint is a trained model as of the epoch it was taken on, with the
AUC it achieved on its training and validation data and, once tested, on
its test data.
*/
type Checkpoint struct {
	ID        string         `json:"id"`
	Fold      int            `json:"fold"`
	Epoch     int            `json:"epoch"`
	TrainAUC  float64        `json:"trainAUC"`
	ValidAUC  float64        `json:"validAUC"`
	TestAUC   float64        `json:"testAUC,omitempty"`
	Params    *config.Params `json:"params"`
	Snapshot  model.Snapshot `json:"snapshot"`
	CreatedAt time.Time      `json:"createdAt"`
}

/*
New takes a model and returns a checkpoint with a copy of its current
parameter values.
*/
func New(m *model.Model, fold, epoch int) *Checkpoint {
	return &Checkpoint{
		Fold:      fold,
		Epoch:     epoch,
		Params:    m.Params,
		Snapshot:  m.Snapshot(),
		CreatedAt: time.Now(),
	}
}

/*
Model rebuilds the model the checkpoint was taken from. An error is returned
if the parameters are invalid or the snapshot does not fit them.
*/
func (c *Checkpoint) Model() (*model.Model, error) {
	if c.Params == nil {
		return nil, fmt.Errorf("checkpoint %s has no params", c.ID)
	}
	m, err := model.New(c.Params, rand.New(rand.NewSource(c.Params.Seed)))
	if err != nil {
		return nil, err
	}
	err = m.Restore(c.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("restoring checkpoint %s: %v", c.ID, err)
	}
	return m, nil
}

/*
Store is an interface to manage a store
where checkpoints can be created, retrieved, updated
and deleted.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type Store interface {
	// Create takes a checkpoint and stores it for the
	// first time in the store, creating an ID for
	// it and setting it for the checkpoint. It returns
	// an error if the checkpoint cannot be stored.
	Create(ctx context.Context, c *Checkpoint) error
	// Get takes an id and returns the checkpoint in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Get(ctx context.Context, id string) (*Checkpoint, error)
	// Store takes a checkpoint already existing in the
	// store and updates it. It expects the checkpoint
	// to have an ID which it will not alter. It returns
	// an error if the update cannot be performed.
	Store(ctx context.Context, c *Checkpoint) error
	// Delete takes the id of a checkpoint and deletes
	// it from the store. It returns an error if the
	// deletion cannot be performed.
	Delete(ctx context.Context, id string) error
	// Close closes the store, freeing any resources
	// in use. It returns an error if the Close cannot
	// be completed.
	Close(ctx context.Context) error
}

type memoryStore struct {
	checkpoints *cache.Cache
}

/*
NewMemoryStore returns an implementation of Store with the process memory
space as underlying backend. Checkpoints expire after the given ttl unless
it is zero or negative, in which case they are kept until deleted.
*/
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &memoryStore{cache.New(ttl, 10*time.Minute)}
}

func (ms *memoryStore) Create(ctx context.Context, c *Checkpoint) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.ID = uuid.New().String()
		if ms.checkpoints.Add(c.ID, c, cache.DefaultExpiration) == nil {
			return nil
		}
	}
}

func (ms *memoryStore) Get(ctx context.Context, id string) (*Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := ms.checkpoints.Get(id)
	if !ok {
		return nil, nil
	}
	return c.(*Checkpoint), nil
}

func (ms *memoryStore) Store(ctx context.Context, c *Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("storing checkpoint without id")
	}
	ms.checkpoints.Set(c.ID, c, cache.DefaultExpiration)
	return nil
}

func (ms *memoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.checkpoints.Delete(id)
	return nil
}

func (ms *memoryStore) Close(ctx context.Context) error {
	ms.checkpoints.Flush()
	return nil
}
