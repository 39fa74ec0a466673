/*
Package redisstore provides a checkpoint.Store backed by a redis DB.
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbanos/sapling/checkpoint"
	"gopkg.in/redis.v5"
)

/*
EncodeDecoder is an interface for objects
that allow encoding checkpoints into slices of
bytes and decoding them back to checkpoints.
*/
type EncodeDecoder interface {

	//Encode receives a *checkpoint.Checkpoint
	//and returns a slice of bytes with the checkpoint
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*checkpoint.Checkpoint) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *checkpoint.Checkpoint decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*checkpoint.Checkpoint, error)
}

type redisStore struct {
	rc     *redis.Client
	prefix string
	encdec EncodeDecoder
}

//New builds a checkpoint.Store backed by a redis DB
func New(rc *redis.Client, prefix string, encdec EncodeDecoder) checkpoint.Store {
	return &redisStore{rc, prefix, encdec}
}

func (rs *redisStore) Create(ctx context.Context, c *checkpoint.Checkpoint) error {
	var ok bool
	for !ok {
		c.ID = uuid.New().String()
		data, err := rs.encdec.Encode(c)
		if err != nil {
			return fmt.Errorf("creating checkpoint: encoding checkpoint: %v", err)
		}
		ok, err = rs.rc.SetNX(rs.keyFor(c.ID), data, 0).Result()
		if err != nil {
			return fmt.Errorf("creating checkpoint in redis: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (rs *redisStore) Get(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	data, err := rs.rc.Get(rs.keyFor(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving checkpoint %q: %v", id, err)
	}
	c, err := rs.encdec.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("retrieving checkpoint %q: decoding: %v", id, err)
	}
	return c, nil
}

func (rs *redisStore) Store(ctx context.Context, c *checkpoint.Checkpoint) error {
	redisID := rs.keyFor(c.ID)
	data, err := rs.encdec.Encode(c)
	if err != nil {
		return fmt.Errorf("storing checkpoint %q: encoding checkpoint: %v", redisID, err)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("storing checkpoint %q in redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, id string) error {
	redisID := rs.keyFor(id)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting checkpoint %q from redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}
