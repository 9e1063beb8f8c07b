package ecs

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// dumpVersion is the schema version of the JSON world dump.
const dumpVersion = 1

// dumpEntity is one entity in the dump: the packed handle, the packed parent handle (0 when
// the entity has no live parent) and the component values keyed by registered name. Internal
// bookkeeping components are folded into the top-level fields instead of appearing in the map.
type dumpEntity struct {
	ID         uint64                     `json:"id"`
	Parent     uint64                     `json:"parent,omitempty"`
	Components map[string]json.RawMessage `json:"components"`
}

// dumpWorld is the top-level dump document.
type dumpWorld struct {
	Version  int          `json:"version"`
	Tick     uint32       `json:"tick"`
	Entities []dumpEntity `json:"entities"`
}

// DumpJSON serializes every live entity with its public components. Entities appear in slot
// index order, so dumps of identical worlds are byte-identical.
func (w *World) DumpJSON() ([]byte, error) {
	doc := dumpWorld{
		Version:  dumpVersion,
		Tick:     uint32(w.tick),
		Entities: make([]dumpEntity, 0, w.allocator.Count()),
	}

	for index := range w.locations.records {
		rec := w.locations.records[index]
		if !rec.valid() {
			continue
		}
		arch := w.graph.get(rec.arch)
		e := arch.entities[rec.row]

		entry := dumpEntity{
			ID:         uint64(e),
			Components: make(map[string]json.RawMessage, len(arch.columns)),
		}
		if parent, ok := w.Parent(e); ok {
			entry.Parent = uint64(parent)
		}

		for _, col := range arch.columns {
			if w.components.meta(col.id()).internal {
				continue
			}
			raw, err := col.marshalRow(int(rec.row))
			if err != nil {
				return nil, eris.Wrapf(err, "failed to dump entity %d", e.Index())
			}
			entry.Components[col.name()] = raw
		}
		doc.Entities = append(doc.Entities, entry)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "failed to serialize world dump")
	}
	return data, nil
}
