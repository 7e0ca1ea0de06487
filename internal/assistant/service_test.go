package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
)

type fakeGenerator struct {
	reply string
	err   error
	delay time.Duration
	last  Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (string, error) {
	f.last = req
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.reply, f.err
}

func snapshot() domain.AssistantSnapshot {
	return domain.AssistantSnapshot{
		Medicines: []domain.MedicineSummary{
			{Name: "Paracetamol 500mg", Stock: 250, Expiry: "2026-12-31"},
			{Name: "Ibuprofen 400mg", Stock: 15, Expiry: "2027-02-10", LowStock: true},
		},
		SalesCount: 4,
	}
}

func TestService_Ask(t *testing.T) {
	gen := &fakeGenerator{reply: "Restock Ibuprofen 400mg."}
	svc := New(gen, time.Second)

	answer := svc.Ask(context.Background(), "What should I reorder?", snapshot())
	assert.Equal(t, "Restock Ibuprofen 400mg.", answer)
	assert.Contains(t, gen.last.Prompt, `"name":"Ibuprofen 400mg","stock":15,"expiry":"2027-02-10","lowStock":true`)
	assert.Contains(t, gen.last.Prompt, "Total sales count is 4.")
	assert.Contains(t, gen.last.Prompt, "What should I reorder?")
	assert.NotEmpty(t, gen.last.Instructions)
	assert.Nil(t, gen.last.Schema)
}

func TestService_AskFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{"error", &fakeGenerator{err: errors.New("connection refused")}, FallbackUnavailable},
		{"empty", &fakeGenerator{reply: "  "}, FallbackEmpty},
		{"timeout", &fakeGenerator{reply: "late", delay: time.Second}, FallbackUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(tt.gen, 20*time.Millisecond)
			assert.Equal(t, tt.want, svc.Ask(context.Background(), "hi", snapshot()))
		})
	}
}

func TestService_InventoryHealth(t *testing.T) {
	gen := &fakeGenerator{reply: `{"criticalItems":["Ibuprofen 400mg"],"summary":"Stock is mostly healthy.","restockPriority":"Medium"}`}
	svc := New(gen, time.Second)

	health := svc.InventoryHealth(context.Background(), snapshot())
	assert.Equal(t, []string{"Ibuprofen 400mg"}, health.CriticalItems)
	assert.Equal(t, "Stock is mostly healthy.", health.Summary)
	assert.Equal(t, domain.RestockMedium, health.RestockPriority)
	assert.Equal(t, "inventory_health", gen.last.SchemaName)
	assert.NotNil(t, gen.last.Schema)
}

func TestService_InventoryHealthNormalises(t *testing.T) {
	gen := &fakeGenerator{reply: `{"criticalItems":null,"summary":"ok","restockPriority":"Urgent"}`}
	health := New(gen, time.Second).InventoryHealth(context.Background(), snapshot())
	assert.Equal(t, []string{}, health.CriticalItems)
	assert.Equal(t, domain.RestockLow, health.RestockPriority)
}

func TestService_InventoryHealthFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"error", &fakeGenerator{err: errors.New("quota exceeded")}},
		{"empty", &fakeGenerator{reply: ""}},
		{"bad json", &fakeGenerator{reply: "{not json"}},
		{"timeout", &fakeGenerator{reply: "{}", delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := New(tt.gen, 20*time.Millisecond).InventoryHealth(context.Background(), snapshot())
			assert.Equal(t, FallbackHealth(), health)
		})
	}
}

func TestHealthSchema(t *testing.T) {
	schema, err := HealthSchema()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []any{"criticalItems", "summary", "restockPriority"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	priority, ok := props["restockPriority"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Low", "Medium", "High"}, priority["enum"])
}
