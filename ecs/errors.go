package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when attempting to operate on an entity that is not alive.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when a component type is not registered or not present
	// on an entity.
	ErrComponentNotFound = eris.New("component not found")

	// ErrResourceNotFound is returned when a resource has not been inserted into the world.
	ErrResourceNotFound = eris.New("resource not found")
)
