package ecs

import "github.com/kelindar/bitmap"

// WorldAccess is the level of direct world access a system declares.
type WorldAccess uint8

const (
	// WorldAccessNone declares no direct world access beyond the declared component and
	// resource sets.
	WorldAccessNone WorldAccess = iota
	// WorldAccessRead declares read-only access to world-level state.
	WorldAccessRead
	// WorldAccessWrite declares mutable access to world-level state.
	WorldAccessWrite
	// WorldAccessExclusive declares that the system must run alone: it conflicts with every
	// other system.
	WorldAccessExclusive
)

// AccessDescriptor declares a system's read/write footprint over components and resources.
// Built once at registration, immutable thereafter; the scheduler proves two systems can run
// in parallel by showing their descriptors don't conflict.
type AccessDescriptor struct {
	compReads  bitmap.Bitmap
	compWrites bitmap.Bitmap
	resReads   bitmap.Bitmap
	resWrites  bitmap.Bitmap
	world      WorldAccess
}

// NewAccessDescriptor returns an empty descriptor with WorldAccessNone.
func NewAccessDescriptor() *AccessDescriptor {
	return &AccessDescriptor{}
}

// ReadsComponent adds a component type to the read set.
func (ad *AccessDescriptor) ReadsComponent(cid ComponentID) *AccessDescriptor {
	ad.compReads.Set(cid)
	return ad
}

// WritesComponent adds a component type to the write set.
func (ad *AccessDescriptor) WritesComponent(cid ComponentID) *AccessDescriptor {
	ad.compWrites.Set(cid)
	return ad
}

// ReadsResource adds a resource to the read set.
func (ad *AccessDescriptor) ReadsResource(rid uint32) *AccessDescriptor {
	ad.resReads.Set(rid)
	return ad
}

// WritesResource adds a resource to the write set.
func (ad *AccessDescriptor) WritesResource(rid uint32) *AccessDescriptor {
	ad.resWrites.Set(rid)
	return ad
}

// WithWorldAccess sets the world-access level.
func (ad *AccessDescriptor) WithWorldAccess(level WorldAccess) *AccessDescriptor {
	ad.world = level
	return ad
}

// WorldAccess returns the declared world-access level.
func (ad *AccessDescriptor) WorldAccess() WorldAccess {
	return ad.world
}

// ConflictsWith returns true if the two systems cannot run concurrently: either declares
// exclusive world access, or one's write set intersects the other's read-or-write set (for
// components or resources). The relation is symmetric.
func (ad *AccessDescriptor) ConflictsWith(other *AccessDescriptor) bool {
	if ad.world == WorldAccessExclusive || other.world == WorldAccessExclusive {
		return true
	}
	if ad.world == WorldAccessWrite && other.world != WorldAccessNone {
		return true
	}
	if other.world == WorldAccessWrite && ad.world != WorldAccessNone {
		return true
	}

	if masksIntersect(ad.compWrites, other.compWrites) ||
		masksIntersect(ad.compWrites, other.compReads) ||
		masksIntersect(other.compWrites, ad.compReads) {
		return true
	}

	return masksIntersect(ad.resWrites, other.resWrites) ||
		masksIntersect(ad.resWrites, other.resReads) ||
		masksIntersect(other.resWrites, ad.resReads)
}

// masksIntersect returns true if the two bitmaps share at least one set bit.
func masksIntersect(a, b bitmap.Bitmap) bool {
	intersect := a.Clone(nil)
	intersect.And(b)
	return intersect.Count() > 0
}
