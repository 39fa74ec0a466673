package redisq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	rq := &redisQ{id: "cv"}
	assert.Equal(t, "cv:pending", rq.pendingListKey())
	assert.Equal(t, "cv:running", rq.runningListKey())
	assert.Equal(t, "cv:task:abc:data", rq.taskDataKey("abc"))
	assert.Equal(t, "cv:task:abc:running", rq.taskRunningKey("abc"))
	assert.Equal(t, rq.taskKeyPrefix("")+"abc:running", rq.taskRunningKey("abc"))
}
