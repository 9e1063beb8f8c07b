package ecs

// entityRecord locates an entity in the storage engine: which archetype holds it and at which
// row. A record is valid iff its row is not the sentinel.
type entityRecord struct {
	arch ArchetypeID
	row  uint32
}

const invalidRow = ^uint32(0)

func (r entityRecord) valid() bool {
	return r.row != invalidRow
}

// locationMap is the O(1) entity-index -> (archetype, row) lookup, updated on every insert,
// structural move and swap-remove.
type locationMap struct {
	records []entityRecord
}

func newLocationMap() locationMap {
	return locationMap{records: make([]entityRecord, 0)}
}

// set records the location of an entity index, growing the map as needed.
func (lm *locationMap) set(index uint32, arch ArchetypeID, row int) {
	for int(index) >= len(lm.records) {
		lm.records = append(lm.records, entityRecord{row: invalidRow})
	}
	lm.records[index] = entityRecord{arch: arch, row: uint32(row)}
}

// get returns the location of an entity index. ok is false for indices that were never stored
// or have been cleared.
func (lm *locationMap) get(index uint32) (entityRecord, bool) {
	if int(index) >= len(lm.records) {
		return entityRecord{}, false
	}
	rec := lm.records[index]
	return rec, rec.valid()
}

// clear invalidates the location of an entity index.
func (lm *locationMap) clear(index uint32) {
	if int(index) < len(lm.records) {
		lm.records[index] = entityRecord{row: invalidRow}
	}
}

// reset drops every record.
func (lm *locationMap) reset() {
	lm.records = lm.records[:0]
}
