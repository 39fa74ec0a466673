/*
Package queue defines the tasks of a cross-validation run, one per fold to
train and test, as well as an interface for a Queue to manage them.

It also provides an in-memory implementation of the Queue interface that,
like the one on redis, returns folds that stall to pending.
*/
package queue
