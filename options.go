package modular

import (
	"github.com/sirupsen/logrus"

	"pipelined.dev/modular/prim"
)

// Option provides a way to set functional parameters to store.
type Option func(*Store)

// WithLogger sets logger to the store. If this option is not provided,
// logger from log package is used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithSharing sets primitive sharing policy. Default policy is
// prim.ExclusivePerNode.
func WithSharing(sharing prim.Sharing) Option {
	return func(s *Store) {
		s.sharing = sharing
	}
}

// WithoutChecks disables consistency checks of buffers provided to
// Compute.
func WithoutChecks() Option {
	return func(s *Store) {
		s.checks = false
	}
}
