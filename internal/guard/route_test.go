package guard

import (
	"context"
	"testing"
	"time"

	"liquidityguard/internal/feeds"
	"liquidityguard/internal/models"
)

func TestMethodFor(t *testing.T) {
	tests := []struct {
		name      string
		urgency   int
		amountUSD float64
		sameChain bool
		want      string
	}{
		{"same chain always direct swap", 10, 500_000, true, models.MethodDirectSwap},
		{"same chain low urgency", 1, 1_000, true, models.MethodDirectSwap},
		{"urgent large cross chain", 7, 60_000, false, models.MethodLayerZeroBridge},
		{"urgent small amount", 8, 40_000, false, models.MethodStandardBridge},
		{"moderate urgency", 5, 200_000, false, models.MethodStandardBridge},
		{"amount boundary not large", 7, 50_000, false, models.MethodStandardBridge},
		{"low urgency cheapest path", 4, 200_000, false, models.MethodFusionCrossChain},
		{"zero urgency", 0, 1_000, false, models.MethodFusionCrossChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MethodFor(tt.urgency, tt.amountUSD, tt.sameChain); got != tt.want {
				t.Errorf("MethodFor(%d, %.0f, %v) = %q, want %q",
					tt.urgency, tt.amountUSD, tt.sameChain, got, tt.want)
			}
		})
	}
}

func TestSpeedFor(t *testing.T) {
	tests := []struct {
		urgency int
		want    string
	}{
		{10, feeds.SpeedFast},
		{7, feeds.SpeedFast},
		{6, feeds.SpeedStandard},
		{5, feeds.SpeedStandard},
		{4, feeds.SpeedSlow},
		{0, feeds.SpeedSlow},
	}

	for _, tt := range tests {
		if got := SpeedFor(tt.urgency); got != tt.want {
			t.Errorf("SpeedFor(%d) = %q, want %q", tt.urgency, got, tt.want)
		}
	}
}

func sameChainStrategy() *models.Strategy {
	return &models.Strategy{
		ID:               "strat-1",
		PositionID:       "pos-1",
		UserAddress:      "0xabc",
		CurrentProtocol:  "aave",
		CurrentChain:     "ethereum",
		TargetProtocol:   "compound",
		TargetChain:      "ethereum",
		CollateralToken:  "ETH",
		AmountUSD:        75_000,
		EstimatedCostUSD: 120,
		Method:           models.MethodDirectSwap,
		Priority:         models.PriorityHigh,
	}
}

func crossChainStrategy(method string) *models.Strategy {
	s := sameChainStrategy()
	s.TargetProtocol = "kamino"
	s.TargetChain = "solana"
	s.Method = method
	return s
}

func TestBuildSameChainRoute(t *testing.T) {
	builder := NewRouteBuilder(nil)
	route := builder.Build(context.Background(), sameChainStrategy())

	if route.ID == "" {
		t.Error("route id is empty")
	}
	if route.Status != models.ExecutionPending {
		t.Errorf("status = %q, want %q", route.Status, models.ExecutionPending)
	}
	if route.StrategyID != "strat-1" || route.PositionID != "pos-1" {
		t.Errorf("route identity not carried over: %+v", route)
	}

	// В пределах одной цепочки залог переносится как есть: без swap и bridge
	wantActions := []string{models.StepWithdraw, models.StepSupply}
	if len(route.Steps) != len(wantActions) {
		t.Fatalf("steps = %d, want %d", len(route.Steps), len(wantActions))
	}
	for i, step := range route.Steps {
		if step.Action != wantActions[i] {
			t.Errorf("step %d action = %q, want %q", i, step.Action, wantActions[i])
		}
		if step.Index != i {
			t.Errorf("step %d index = %d", i, step.Index)
		}
		if step.Action == models.StepSwap || step.Action == models.StepBridge {
			t.Errorf("same-chain route must not contain %q step", step.Action)
		}
		if step.Gasless {
			t.Errorf("step %d unexpectedly gasless", i)
		}
	}

	if route.Steps[0].Protocol != "aave" {
		t.Errorf("withdraw protocol = %q, want aave", route.Steps[0].Protocol)
	}
	if route.Steps[1].Protocol != "compound" {
		t.Errorf("supply protocol = %q, want compound", route.Steps[1].Protocol)
	}

	// withdraw 30 + supply 30
	if route.EstimatedTime != 60 {
		t.Errorf("estimated time = %d, want 60", route.EstimatedTime)
	}
}

func TestBuildCrossChainRoute(t *testing.T) {
	builder := NewRouteBuilder(nil)
	route := builder.Build(context.Background(), crossChainStrategy(models.MethodStandardBridge))

	wantActions := []string{models.StepWithdraw, models.StepSwap, models.StepBridge, models.StepSwap, models.StepSupply}
	if len(route.Steps) != len(wantActions) {
		t.Fatalf("steps = %d, want %d", len(route.Steps), len(wantActions))
	}
	for i, step := range route.Steps {
		if step.Action != wantActions[i] {
			t.Errorf("step %d action = %q, want %q", i, step.Action, wantActions[i])
		}
	}

	bridge := route.Steps[2]
	if bridge.Via != "standard" {
		t.Errorf("bridge via = %q, want standard", bridge.Via)
	}
	if bridge.FromToken != "USDC" || bridge.ToToken != "USDC" {
		t.Errorf("bridge должен переносить промежуточный стейбл, got %s → %s", bridge.FromToken, bridge.ToToken)
	}

	// Первый swap на исходной цепочке, второй - на целевой
	if route.Steps[1].Chain != "ethereum" {
		t.Errorf("first swap chain = %q, want ethereum", route.Steps[1].Chain)
	}
	if route.Steps[3].Chain != "solana" {
		t.Errorf("second swap chain = %q, want solana", route.Steps[3].Chain)
	}
	if route.Steps[4].Chain != "solana" {
		t.Errorf("supply chain = %q, want solana", route.Steps[4].Chain)
	}

	// withdraw 30 + swap 30 + bridge 600 + swap 30 + supply 30
	if route.EstimatedTime != 720 {
		t.Errorf("estimated time = %d, want 720", route.EstimatedTime)
	}
}

func TestBuildFusionRouteGasless(t *testing.T) {
	builder := NewRouteBuilder(nil)
	route := builder.Build(context.Background(), crossChainStrategy(models.MethodFusionCrossChain))

	if route.Steps[2].Via != "fusion" {
		t.Errorf("bridge via = %q, want fusion", route.Steps[2].Via)
	}
	for _, i := range []int{1, 2, 3} {
		if !route.Steps[i].Gasless {
			t.Errorf("step %d (%s) must be gasless for fusion method", i, route.Steps[i].Action)
		}
	}
	// withdraw и supply всегда on-chain от имени пользователя
	if route.Steps[0].Gasless || route.Steps[4].Gasless {
		t.Error("withdraw/supply must not be gasless")
	}

	// withdraw 30 + fusion swap 180 + fusion bridge 180 + fusion swap 180 + supply 30
	if route.EstimatedTime != 600 {
		t.Errorf("estimated time = %d, want 600", route.EstimatedTime)
	}
}

// Фиксированная котировка для проверки использования провайдера
type stubQuotes struct {
	estimated time.Duration
}

func (s *stubQuotes) Quote(_ context.Context, chain, from, to string, amount float64) feeds.SwapQuote {
	return feeds.SwapQuote{Chain: chain, FromToken: from, ToToken: to, AmountUSD: amount, EstimatedTime: s.estimated}
}

func (s *stubQuotes) FusionQuote(_ context.Context, chain, from, to string, amount float64) feeds.SwapQuote {
	return feeds.SwapQuote{Chain: chain, FromToken: from, ToToken: to, AmountUSD: amount, Gasless: true, EstimatedTime: s.estimated}
}

func TestBuildUsesQuoteEstimates(t *testing.T) {
	builder := NewRouteBuilder(&stubQuotes{estimated: 45 * time.Second})
	route := builder.Build(context.Background(), crossChainStrategy(models.MethodStandardBridge))

	// withdraw 30 + swap по котировке 45 + bridge 600 + swap 45 + supply 30
	if route.EstimatedTime != 750 {
		t.Errorf("estimated time = %d, want 750", route.EstimatedTime)
	}
}

func BenchmarkBuildRoute(b *testing.B) {
	builder := NewRouteBuilder(nil)
	strategy := crossChainStrategy(models.MethodLayerZeroBridge)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Build(ctx, strategy)
	}
}
