package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) returned error: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %q, got %q", status, got)
		}
	}
	if _, err := ParseOrderStatus("Pending"); err == nil {
		t.Fatal("expected case-sensitive parse to reject Pending")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:   false,
		OrderStatusShipping:  false,
		OrderStatusCompleted: true,
		OrderStatusCancelled: true,
		OrderStatusReturned:  true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestCheckoutEnums(t *testing.T) {
	if !DefaultPaymentMethod.IsValid() {
		t.Fatal("default payment method must be valid")
	}
	if PaymentMethod("bitcoin").IsValid() {
		t.Fatal("unexpected payment method accepted")
	}
	if _, err := ParseShippingMethod("Free shipping"); err == nil {
		t.Fatal("expected display label to be rejected")
	}
	if m, err := ParseShippingMethod("local_pickup"); err != nil || m != ShippingMethodLocalPickup {
		t.Fatalf("unexpected shipping parse result %q, %v", m, err)
	}
	if _, err := ParseUserRole("staff"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestOutboxEventAggregates(t *testing.T) {
	for _, event := range []OutboxEventType{EventOrderCreated, EventOrderStateChanged, EventOrderCanceled} {
		if event.Aggregate() != AggregateOrder {
			t.Fatalf("%s should belong to the order aggregate", event)
		}
		if _, err := ParseOutboxEventType(string(event)); err != nil {
			t.Fatalf("ParseOutboxEventType(%q): %v", event, err)
		}
	}
	if OutboxEventType("cart_updated").Aggregate() != "" {
		t.Fatal("unknown event should have no aggregate")
	}
	if _, err := ParseOutboxAggregateType("checkout_group"); err == nil {
		t.Fatal("expected unknown aggregate to be rejected")
	}
}
