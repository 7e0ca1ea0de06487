package store

import (
	"context"
	"encoding/json"
	"strconv"

	"pharmapos/m/domain"
)

// Keys under which the session state is stored.
const (
	KeyInventory = "pharma_inventory"
	KeySales     = "pharma_sales"
	KeyAuth      = "pharma_auth"
)

// KV is an opaque string key-value backend.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put writes all entries, atomically where the backend allows it.
	Put(ctx context.Context, entries map[string]string) error
}

// Snapshot is everything the session persists.
type Snapshot struct {
	Inventory     []domain.Medicine
	Sales         []domain.Sale
	Authenticated bool
}

// Gateway serialises snapshots as JSON documents in a KV backend.
type Gateway struct {
	kv   KV
	name string
}

// NewGateway wraps kv; name labels errors (e.g. "sql", "redis").
func NewGateway(kv KV, name string) *Gateway {
	return &Gateway{kv: kv, name: name}
}

// Load reads the snapshot. Missing keys and missing fields load as defaults.
func (g *Gateway) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := g.loadJSON(ctx, KeyInventory, &snap.Inventory); err != nil {
		return Snapshot{}, err
	}
	if err := g.loadJSON(ctx, KeySales, &snap.Sales); err != nil {
		return Snapshot{}, err
	}
	raw, ok, err := g.kv.Get(ctx, KeyAuth)
	if err != nil {
		return Snapshot{}, g.fail("load "+KeyAuth, err)
	}
	if ok {
		snap.Authenticated, _ = strconv.ParseBool(raw)
	}
	return snap, nil
}

// Save writes the whole snapshot.
func (g *Gateway) Save(ctx context.Context, snap Snapshot) error {
	inventory := snap.Inventory
	if inventory == nil {
		inventory = []domain.Medicine{}
	}
	sales := snap.Sales
	if sales == nil {
		sales = []domain.Sale{}
	}
	invJSON, err := json.Marshal(inventory)
	if err != nil {
		return g.fail("encode inventory", err)
	}
	salesJSON, err := json.Marshal(sales)
	if err != nil {
		return g.fail("encode sales", err)
	}
	err = g.kv.Put(ctx, map[string]string{
		KeyInventory: string(invJSON),
		KeySales:     string(salesJSON),
		KeyAuth:      strconv.FormatBool(snap.Authenticated),
	})
	if err != nil {
		return g.fail("save", err)
	}
	return nil
}

func (g *Gateway) loadJSON(ctx context.Context, key string, dest any) error {
	raw, ok, err := g.kv.Get(ctx, key)
	if err != nil {
		return g.fail("load "+key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return g.fail("decode "+key, err)
	}
	return nil
}

func (g *Gateway) fail(op string, err error) error {
	return &domain.GatewayError{Gateway: "persistence/" + g.name, Op: op, Err: err}
}
