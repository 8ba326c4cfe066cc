package services

import (
	"context"
	"encoding/json"
	"fmt"

	"vrf-flip-backend/internal/models"

	"github.com/pkg/errors"
)

// Store runs every engine operation as one atomic unit. Nothing written
// through a Tx is visible to other callers unless fn returns nil.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the record view inside one Update or View. Getters return copies;
// callers mutate the copy and Put it back.
type Tx interface {
	House() (*models.HouseState, error)
	PutHouse(h *models.HouseState) error
	Player(address string) (*models.PlayerState, error)
	PutPlayer(p *models.PlayerState) error
	TokenAccount(address string) (*models.TokenAccount, error)
	PutTokenAccount(a *models.TokenAccount) error
	Request(address string) (*models.RandomnessRequest, error)
	PutRequest(r *models.RandomnessRequest) error
}

var (
	errKeyNotFound = errors.New("key not found")
	errReadOnlyTx  = errors.New("write inside a read-only transaction")
)

// kvTx stages writes over a backend-specific read function. Both stores
// share it so encoding and not-found mapping stay identical.
type kvTx struct {
	ctx      context.Context
	read     func(ctx context.Context, key string) ([]byte, error)
	writes   map[string][]byte
	readOnly bool
}

func newKVTx(ctx context.Context, readOnly bool, read func(ctx context.Context, key string) ([]byte, error)) *kvTx {
	return &kvTx{
		ctx:      ctx,
		read:     read,
		writes:   make(map[string][]byte),
		readOnly: readOnly,
	}
}

func (t *kvTx) get(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return v, nil
	}
	return t.read(t.ctx, key)
}

func (t *kvTx) put(key string, v []byte) error {
	if t.readOnly {
		return errReadOnlyTx
	}
	t.writes[key] = v
	return nil
}

func (t *kvTx) getJSON(key string, out interface{}, missing error) error {
	data, err := t.get(key)
	if err == errKeyNotFound {
		return missing
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}

func (t *kvTx) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return t.put(key, data)
}

func (t *kvTx) House() (*models.HouseState, error) {
	var h models.HouseState
	if err := t.getJSON(KeyHouse, &h, models.ErrHouseNotInitialized); err != nil {
		return nil, err
	}
	return &h, nil
}

func (t *kvTx) PutHouse(h *models.HouseState) error {
	return t.putJSON(KeyHouse, h)
}

func (t *kvTx) Player(address string) (*models.PlayerState, error) {
	key := fmt.Sprintf(KeyPlayer, address)
	data, err := t.get(key)
	if err == errKeyNotFound {
		return nil, models.ErrPlayerNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}

	var p models.PlayerState
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", key)
	}
	return &p, nil
}

func (t *kvTx) PutPlayer(p *models.PlayerState) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode player")
	}
	return t.put(fmt.Sprintf(KeyPlayer, p.Address), data)
}

func (t *kvTx) TokenAccount(address string) (*models.TokenAccount, error) {
	var a models.TokenAccount
	if err := t.getJSON(fmt.Sprintf(KeyTokenAccount, address), &a, models.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *kvTx) PutTokenAccount(a *models.TokenAccount) error {
	return t.putJSON(fmt.Sprintf(KeyTokenAccount, a.Address), a)
}

func (t *kvTx) Request(address string) (*models.RandomnessRequest, error) {
	var r models.RandomnessRequest
	if err := t.getJSON(fmt.Sprintf(KeyRequest, address), &r, models.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *kvTx) PutRequest(r *models.RandomnessRequest) error {
	return t.putJSON(fmt.Sprintf(KeyRequest, r.Address), r)
}
