// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package coffee

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Service implements Coffees on top of a Store.  It validates
// requests, assigns versions, and runs the optimistic-concurrency
// check for updates.  It holds no state of its own beyond the store
// handle, and is safe for concurrent use if the store is.
type Service struct {
	store Store
	log   logrus.FieldLogger
}

// NewService creates a new service backed by store, logging to the
// standard logrus logger.
func NewService(store Store) *Service {
	return NewServiceWithLogger(store, logrus.StandardLogger())
}

// NewServiceWithLogger creates a new service backed by store, with an
// explicit logger.  See NewService for further details.
func NewServiceWithLogger(store Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log}
}

// List returns every coffee in the store.  The result is never nil.
func (s *Service) List(ctx context.Context) ([]Coffee, error) {
	s.log.Debug("Finding all coffees")
	coffees, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.failed("list coffees", err)
	}
	if coffees == nil {
		coffees = []Coffee{}
	}
	return coffees, nil
}

// Get returns the coffee with id, or ErrNoSuchCoffee.
func (s *Service) Get(ctx context.Context, id int) (Coffee, error) {
	s.log.WithField("id", id).Debug("Finding coffee")
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Coffee{}, s.failed(fmt.Sprintf("find coffee %d", id), err)
	}
	return c, nil
}

// Create inserts a new coffee at version 1.
func (s *Service) Create(ctx context.Context, name string) (Coffee, error) {
	if name == "" {
		s.log.Debug("Coffee is missing name")
		return Coffee{}, ErrMissingName
	}
	c, err := s.store.Insert(ctx, Coffee{Name: name, Version: 1})
	if err != nil {
		return Coffee{}, s.failed("insert coffee", err)
	}
	s.log.WithFields(logrus.Fields{
		"id":   c.ID,
		"name": c.Name,
	}).Debug("Created coffee")
	return c, nil
}

// Update changes the name of coffee id and increments its version.
// The update only happens if expectedVersion is the current version;
// otherwise it returns ErrVersionConflict and the stored coffee is
// unchanged.
func (s *Service) Update(ctx context.Context, id int, name string, expectedVersion int) (Coffee, error) {
	log := s.log.WithFields(logrus.Fields{
		"id":       id,
		"if_match": expectedVersion,
	})
	if name == "" {
		log.Debug("Coffee is missing name")
		return Coffee{}, ErrMissingName
	}

	op := fmt.Sprintf("update coffee %d", id)
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Coffee{}, s.failed(op, err)
	}
	if current.Version != expectedVersion {
		log.WithField("version", current.Version).Debug("Version conflict")
		return Coffee{}, ErrVersionConflict{
			ID:      id,
			Version: current.Version,
			IfMatch: expectedVersion,
		}
	}

	next := Coffee{ID: current.ID, Name: name, Version: current.Version + 1}
	// The store repeats the version comparison atomically with the
	// write; another request may have won since FindByID.
	err = s.store.Persist(ctx, next, expectedVersion)
	if err != nil {
		if IsConflict(err) {
			log.WithField("err", err).Debug("Version conflict at write")
		}
		return Coffee{}, s.failed(op, err)
	}
	log.WithField("version", next.Version).Debug("Updated coffee")
	return next, nil
}

// Delete permanently removes coffee id.
func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.store.Remove(ctx, id)
	if err != nil {
		return s.failed(fmt.Sprintf("delete coffee %d", id), err)
	}
	s.log.WithField("id", id).Debug("Deleted coffee")
	return nil
}

// failed converts a store error to the error returned to callers,
// logging genuine store failures.
func (s *Service) failed(op string, err error) error {
	err = storeError(op, err)
	if _, isStore := err.(*ErrStore); isStore {
		s.log.WithFields(logrus.Fields{
			"op":  op,
			"err": err,
		}).Error("Store failure")
	}
	return err
}
