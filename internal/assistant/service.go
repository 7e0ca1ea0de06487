package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"pharmapos/m/domain"
)

const (
	FallbackUnavailable = "Error connecting to AI Assistant. Please check your connectivity."
	FallbackEmpty       = "I'm sorry, I couldn't process that request."
	FallbackSummary     = "Inventory analysis unavailable."
)

const pharmacistInstructions = `You are a professional pharmacist assistant. Help the user manage the pharmacy, ` +
	`analyze stock trends, suggest restocks based on low stock levels, or answer medical questions based on ` +
	`common knowledge (always with a disclaimer). Be concise and professional.`

// Service wraps a Generator with a bounded timeout. Its methods never return
// errors; failures degrade to fixed fallback values.
type Service struct {
	gen     Generator
	timeout time.Duration
}

func New(gen Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{gen: gen, timeout: timeout}
}

// Ask answers a free-text question with the inventory snapshot as context.
func (s *Service) Ask(ctx context.Context, prompt string, snap domain.AssistantSnapshot) string {
	inventory, err := json.Marshal(summaries(snap))
	if err != nil {
		log.Printf("[assistant] WARN: %v", err)
		return FallbackUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, Request{
		Instructions: pharmacistInstructions,
		Prompt: fmt.Sprintf("Current Inventory: %s\n\nRecent Sales Summary: Total sales count is %d.\n\n%s",
			inventory, snap.SalesCount, prompt),
		Temperature: 0.7,
		TopP:        0.95,
	})
	if err != nil {
		log.Printf("[assistant] WARN: ask failed: %v", gatewayErr("ask", err))
		return FallbackUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return FallbackEmpty
	}
	return text
}

// InventoryHealth asks for a structured health check of the inventory.
func (s *Service) InventoryHealth(ctx context.Context, snap domain.AssistantSnapshot) domain.InventoryHealth {
	health, err := s.inventoryHealth(ctx, snap)
	if err != nil {
		log.Printf("[assistant] WARN: inventory health unavailable: %v", gatewayErr("inventory-health", err))
		return FallbackHealth()
	}
	return health
}

func (s *Service) inventoryHealth(ctx context.Context, snap domain.AssistantSnapshot) (domain.InventoryHealth, error) {
	schema, err := HealthSchema()
	if err != nil {
		return domain.InventoryHealth{}, err
	}
	inventory, err := json.Marshal(summaries(snap))
	if err != nil {
		return domain.InventoryHealth{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, Request{
		Prompt:            "Analyze this pharmacy inventory and provide a structured JSON health check: " + string(inventory),
		SchemaName:        "inventory_health",
		SchemaDescription: "A structured health check of the pharmacy inventory",
		Schema:            schema,
	})
	if err != nil {
		return domain.InventoryHealth{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.InventoryHealth{}, errors.New("empty response content")
	}

	var health domain.InventoryHealth
	if err := json.Unmarshal([]byte(text), &health); err != nil {
		return domain.InventoryHealth{}, fmt.Errorf("failed to parse completion: %w", err)
	}
	if health.CriticalItems == nil {
		health.CriticalItems = []string{}
	}
	if !health.RestockPriority.Valid() {
		health.RestockPriority = domain.RestockLow
	}
	return health, nil
}

// FallbackHealth is returned whenever the structured health check fails.
func FallbackHealth() domain.InventoryHealth {
	return domain.InventoryHealth{
		CriticalItems:   []string{},
		Summary:         FallbackSummary,
		RestockPriority: domain.RestockLow,
	}
}

// HealthSchema reflects domain.InventoryHealth into a strict JSON schema.
func HealthSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	data, err := json.Marshal(reflector.Reflect(domain.InventoryHealth{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schema, nil
}

func summaries(snap domain.AssistantSnapshot) []domain.MedicineSummary {
	if snap.Medicines == nil {
		return []domain.MedicineSummary{}
	}
	return snap.Medicines
}

func gatewayErr(op string, err error) error {
	return &domain.GatewayError{Gateway: "assistant", Op: op, Err: err}
}
