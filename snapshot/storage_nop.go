package snapshot

import "context"

// NopStorage discards every snapshot. Used when persistence is disabled.
type NopStorage struct{}

var _ Storage = NopStorage{}

func NewNopStorage() NopStorage {
	return NopStorage{}
}

func (NopStorage) Save(context.Context, string, uint32, []byte) error {
	return nil
}

func (NopStorage) Load(context.Context, string, uint32) ([]byte, error) {
	return nil, ErrSnapshotNotFound
}

func (NopStorage) Latest(context.Context, string) ([]byte, uint32, error) {
	return nil, 0, ErrSnapshotNotFound
}

func (NopStorage) Close() error {
	return nil
}
