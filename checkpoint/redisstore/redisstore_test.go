package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	rs := &redisStore{prefix: "sapling:checkpoints"}
	assert.Equal(t, "sapling:checkpoints:abc", rs.keyFor("abc"))
}
