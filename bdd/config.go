// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import "github.com/sirupsen/logrus"

// _MINFREENODES is the default percentage of free nodes that must remain after
// a garbage collection, below which we resize the node table.
const _MINFREENODES int = 20

// _DEFAULTMAXNODEINC is the default limit on the number of nodes added to the
// table at each resize.
const _DEFAULTMAXNODEINC int = 1 << 20

// configs stores the values of the different parameters of the BDD.
type configs struct {
	varnum          int                // initial number of variables
	nodesize        int                // initial number of nodes in the table
	cachesize       int                // initial cache size
	cacheratio      int                // ratio (%) between cache size and node table, 0 if size constant
	maxnodesize     int                // maximum total number of nodes (0 if no limit)
	maxnodeincrease int                // maximum number of nodes added at each resize (0 if no limit)
	minfreenodes    int                // minimum % of free nodes left after GC before triggering a resize
	logger          logrus.FieldLogger // destination of GC and resize events
}

// Option is a configuration option (function) accepted by New.
type Option func(*configs)

func makeconfigs(varnum int) *configs {
	c := &configs{varnum: varnum}
	c.minfreenodes = _MINFREENODES
	c.maxnodeincrease = _DEFAULTMAXNODEINC
	c.nodesize = 2*varnum + 2
	c.logger = logrus.StandardLogger()
	return c
}

// Nodesize sets a preferred initial size for the node table. The table grows
// during computation when needed. The value is ignored when it is too small to
// hold the constants and the initial variables.
func Nodesize(size int) Option {
	return func(c *configs) {
		if size >= 2*c.varnum+2 {
			c.nodesize = size
		}
	}
}

// Maxnodesize sets a limit to the number of nodes in the table. An operation
// trying to raise the number of nodes above this limit sets the error status
// of the BDD. The default value (0) means that there is no limit.
func Maxnodesize(size int) Option {
	return func(c *configs) {
		c.maxnodesize = size
	}
}

// Maxnodeincrease sets a limit on the number of nodes added to the table at
// each resize. Below this limit we double the size of the table. Set the value
// to zero to avoid imposing a limit.
func Maxnodeincrease(size int) Option {
	return func(c *configs) {
		c.maxnodeincrease = size
	}
}

// Minfreenodes sets the ratio of free nodes (%) that has to be left after a
// garbage collection. With a ratio of, say 25, we resize the table if the
// number of free nodes is less than 25% of its capacity. The default is 20%.
func Minfreenodes(ratio int) Option {
	return func(c *configs) {
		c.minfreenodes = ratio
	}
}

// Cachesize sets the initial number of entries in the operation caches. The
// default is a fifth of the initial node table size.
func Cachesize(size int) Option {
	return func(c *configs) {
		c.cachesize = size
	}
}

// Cacheratio sets a cache ratio (%) so that caches grow each time we resize
// the node table. With a ratio of r, we have r cache entries for every 100
// slots in the node table. The default (0) means that caches never grow.
func Cacheratio(ratio int) Option {
	return func(c *configs) {
		c.cacheratio = ratio
	}
}

// Logger sets the destination of debug events (garbage collections and
// resizes). The default is the logrus standard logger.
func Logger(log logrus.FieldLogger) Option {
	return func(c *configs) {
		if log != nil {
			c.logger = log
		}
	}
}
