// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"io"

	"github.com/nddlab/ndd/bdd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	_DEFAULTNODESIZE  int = 1 << 14
	_DEFAULTCACHESIZE int = 1 << 14
)

// configs stores the values of the different parameters of the engine.
type configs struct {
	nodesize  int                // initial capacity of the node table
	cachesize int                // number of entries of each operation cache
	flat      []bdd.Option       // options passed to the flat engine
	logger    logrus.FieldLogger // destination of reclamation events
}

// Option is a configuration option (function) accepted by New.
type Option func(*configs)

func makeconfigs() *configs {
	return &configs{
		nodesize:  _DEFAULTNODESIZE,
		cachesize: _DEFAULTCACHESIZE,
		logger:    logrus.StandardLogger(),
	}
}

// Nodesize sets the initial capacity of the node table. When the table is
// full we reclaim unused nodes, and we double the capacity when less than 10%
// of it is free after reclamation.
func Nodesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.nodesize = size
		}
	}
}

// Cachesize sets the number of entries of each operation cache. The value is
// rounded up to a prime number.
func Cachesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.cachesize = size
		}
	}
}

// FlatNodesize sets the initial size of the node table of the flat engine.
func FlatNodesize(size int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Nodesize(size))
	}
}

// FlatCachesize sets the initial size of the caches of the flat engine.
func FlatCachesize(size int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Cachesize(size))
	}
}

// FlatCacheratio sets the cache ratio (%) of the flat engine.
func FlatCacheratio(ratio int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Cacheratio(ratio))
	}
}

// FlatMaxnodesize sets a limit to the number of nodes of the flat engine. The
// default (0) means no limit.
func FlatMaxnodesize(size int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Maxnodesize(size))
	}
}

// FlatMaxnodeincrease sets a limit on the number of nodes added to the table
// of the flat engine at each resize. The value 0 means no limit.
func FlatMaxnodeincrease(size int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Maxnodeincrease(size))
	}
}

// FlatMinfreenodes sets the ratio (%) of free nodes that the flat engine keeps
// after a garbage collection before resizing its node table.
func FlatMinfreenodes(ratio int) Option {
	return func(c *configs) {
		c.flat = append(c.flat, bdd.Minfreenodes(ratio))
	}
}

// Logger sets the destination of debug events for the engine and its flat
// engine. The default is the logrus standard logger.
func Logger(log logrus.FieldLogger) Option {
	return func(c *configs) {
		if log != nil {
			c.logger = log
		}
	}
}

// ************************************************************

// Config is the serializable form of the engine options. Zero values keep the
// defaults.
type Config struct {
	Nodesize  int        `yaml:"nodesize"`
	Cachesize int        `yaml:"cachesize"`
	Flat      FlatConfig `yaml:"flat"`
}

// FlatConfig holds the options of the flat engine.
type FlatConfig struct {
	Nodesize        int `yaml:"nodesize"`
	Cachesize       int `yaml:"cachesize"`
	Cacheratio      int `yaml:"cacheratio"`
	Maxnodesize     int `yaml:"maxnodesize"`
	Maxnodeincrease int `yaml:"maxnodeincrease"`
	Minfreenodes    int `yaml:"minfreenodes"`
}

// LoadConfig reads a YAML configuration. Unknown keys are rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	c := &Config{}
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}
	if c.Nodesize < 0 || c.Cachesize < 0 || c.Flat.Nodesize < 0 || c.Flat.Cachesize < 0 ||
		c.Flat.Cacheratio < 0 || c.Flat.Maxnodesize < 0 || c.Flat.Maxnodeincrease < 0 || c.Flat.Minfreenodes < 0 {
		return nil, errors.New("negative value in configuration")
	}
	return c, nil
}

// Options returns the options corresponding to the non-zero fields of c.
func (c *Config) Options() []Option {
	var res []Option
	if c.Nodesize > 0 {
		res = append(res, Nodesize(c.Nodesize))
	}
	if c.Cachesize > 0 {
		res = append(res, Cachesize(c.Cachesize))
	}
	if c.Flat.Nodesize > 0 {
		res = append(res, FlatNodesize(c.Flat.Nodesize))
	}
	if c.Flat.Cachesize > 0 {
		res = append(res, FlatCachesize(c.Flat.Cachesize))
	}
	if c.Flat.Cacheratio > 0 {
		res = append(res, FlatCacheratio(c.Flat.Cacheratio))
	}
	if c.Flat.Maxnodesize > 0 {
		res = append(res, FlatMaxnodesize(c.Flat.Maxnodesize))
	}
	if c.Flat.Maxnodeincrease > 0 {
		res = append(res, FlatMaxnodeincrease(c.Flat.Maxnodeincrease))
	}
	if c.Flat.Minfreenodes > 0 {
		res = append(res, FlatMinfreenodes(c.Flat.Minfreenodes))
	}
	return res
}
