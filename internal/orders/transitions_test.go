package orders

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusShipping}:   true,
		{enums.OrderStatusPending, enums.OrderStatusCancelled}:  true,
		{enums.OrderStatusShipping, enums.OrderStatusCompleted}: true,
		{enums.OrderStatusShipping, enums.OrderStatusReturned}:  true,
	}
	for _, from := range enums.OrderStatuses() {
		for _, to := range enums.OrderStatuses() {
			want := allowed[[2]enums.OrderStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		next := NextStatuses(status)
		if status.IsTerminal() && len(next) != 0 {
			t.Fatalf("terminal status %s has edges %v", status, next)
		}
		if !status.IsTerminal() && len(next) == 0 {
			t.Fatalf("non-terminal status %s has no edges", status)
		}
	}
}
