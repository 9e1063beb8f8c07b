// Package log provides structured logging helpers for world introspection.
package log

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/hive-engine/queen/ecs"
)

// Loggable is anything that can report its registered components and systems.
type Loggable interface {
	RegisteredComponents() []ecs.ComponentInfo
	RegisteredSystems() []string
}

func loadComponentIntoArrayLogger(component ecs.ComponentInfo, arrayLogger *zerolog.Array) *zerolog.Array {
	dictLogger := zerolog.Dict()
	dictLogger = dictLogger.Uint32("component_id", component.ID)
	dictLogger = dictLogger.Str("component_name", component.Name)
	return arrayLogger.Dict(dictLogger)
}

func loadComponentsToEvent(event *zerolog.Event, target Loggable) *zerolog.Event {
	components := target.RegisteredComponents()
	sort.Slice(components, func(i, j int) bool {
		return components[i].ID < components[j].ID
	})
	event.Int("total_components", len(components))
	arrayLogger := zerolog.Arr()
	for _, component := range components {
		arrayLogger = loadComponentIntoArrayLogger(component, arrayLogger)
	}
	return event.Array("components", arrayLogger)
}

func loadSystemsToEvent(event *zerolog.Event, target Loggable) *zerolog.Event {
	systems := target.RegisteredSystems()
	event.Int("total_systems", len(systems))
	arrayLogger := zerolog.Arr()
	for _, name := range systems {
		arrayLogger = arrayLogger.Str(name)
	}
	return event.Array("systems", arrayLogger)
}

// Components logs every registered component type.
func Components(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	event := logger.WithLevel(level)
	event = loadComponentsToEvent(event, target)
	event.Send()
}

// Systems logs every registered system.
func Systems(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	event := logger.WithLevel(level)
	event = loadSystemsToEvent(event, target)
	event.Send()
}

// World logs everything about the world (components and systems).
func World(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	event := logger.WithLevel(level)
	event = loadComponentsToEvent(event, target)
	event = loadSystemsToEvent(event, target)
	event.Send()
}

// Entity logs one entity with its component set.
func Entity(logger *zerolog.Logger, level zerolog.Level, e ecs.Entity, components []ecs.Component) {
	arrayLogger := zerolog.Arr()
	for _, component := range components {
		arrayLogger = arrayLogger.Str(component.Name())
	}
	event := logger.WithLevel(level)
	event.Array("components", arrayLogger)
	event.Uint32("entity_index", e.Index())
	event.Uint16("entity_generation", e.Generation())
	event.Send()
}

// CreateSystemLogger creates a sub-logger with the entry {"system": systemName}.
func CreateSystemLogger(logger *zerolog.Logger, systemName string) *zerolog.Logger {
	newLogger := logger.With().Str("system", systemName).Logger()
	return &newLogger
}

// CreateTraceLogger creates a sub-logger carrying a trace id, for following one data path.
func CreateTraceLogger(logger *zerolog.Logger, traceID string) *zerolog.Logger {
	newLogger := logger.With().Str("trace_id", traceID).Logger()
	return &newLogger
}
