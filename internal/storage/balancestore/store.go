// Package balancestore persists ledger balance records in a key-value
// backend. Account records are stored under the ledger's own table
// keys, issuance rows under an "i/" prefix, both CBOR-encoded.
package balancestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/types"
	"github.com/setlabs/serpd/internal/storage/kv"
)

const issuancePrefix = "i/"

// Store implements ledger.View over a kv.DB.
type Store struct {
	db  kv.DB
	ctx context.Context
}

// New creates a store over db.
func New(db kv.DB) *Store {
	return &Store{db: db, ctx: context.Background()}
}

var cborHandle codec.CborHandle

func encode(v interface{}) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, &cborHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf, nil
}

func decode(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, &cborHandle).Decode(v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func (s *Store) Account(key string) (ledger.AccountRecord, bool, error) {
	data, err := s.db.Read(s.ctx, []byte(key))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return ledger.AccountRecord{}, false, nil
		}
		return ledger.AccountRecord{}, false, err
	}

	var rec ledger.AccountRecord
	if err := decode(data, &rec); err != nil {
		return ledger.AccountRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) Issuance(asset types.AssetID) (types.Balance, error) {
	data, err := s.db.Read(s.ctx, []byte(issuancePrefix+string(asset)))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var v types.Balance
	if err := decode(data, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) ForEachAccount(prefix string, fn func(key string, rec ledger.AccountRecord) bool) error {
	start := []byte(prefix)
	it, err := s.db.Iterator(s.ctx, start, kv.PrefixEnd(start))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		var rec ledger.AccountRecord
		if err := decode(it.Value(), &rec); err != nil {
			return err
		}
		if !fn(string(it.Key()), rec) {
			break
		}
	}
	return it.Error()
}

func (s *Store) Apply(muts []ledger.Mutation) error {
	ops := make([]kv.BatchOperation, 0, len(muts))
	for _, m := range muts {
		switch m.Kind {
		case ledger.MutationSetAccount:
			data, err := encode(m.Record)
			if err != nil {
				return err
			}
			ops = append(ops, kv.BatchOperation{Type: kv.BatchPut, Key: []byte(m.Key), Value: data})
		case ledger.MutationRemoveAccount:
			ops = append(ops, kv.BatchOperation{Type: kv.BatchDelete, Key: []byte(m.Key)})
		case ledger.MutationSetIssuance:
			data, err := encode(m.Issuance)
			if err != nil {
				return err
			}
			ops = append(ops, kv.BatchOperation{Type: kv.BatchPut, Key: []byte(issuancePrefix + string(m.Asset)), Value: data})
		default:
			return fmt.Errorf("unknown mutation kind: %d", m.Kind)
		}
	}
	return s.db.Batch(s.ctx, ops)
}
