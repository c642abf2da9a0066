package service

import (
	"context"
	"errors"
	"testing"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/util"
)

func TestCreateOrderResumesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)

	first, err := env.order.CreateOrder(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if first.Status != model.OrderPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	if first.OrderNo == "" {
		t.Fatal("expected order number")
	}

	// 再次下单：恢复既有待付款订单，不重复建单
	second, err := env.order.CreateOrder(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("resume order: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected resumed order %d, got %d", first.ID, second.ID)
	}
}

func TestCreateOrderRejectsOwnedCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	if _, err := env.order.CreateOrder(ctx, user.ID, course.ID); !errors.Is(err, util.ErrAlreadyPurchased) {
		t.Fatalf("expected ErrAlreadyPurchased, got %v", err)
	}
}

func TestCreateOrderUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "a@test.dev")

	if _, err := env.order.CreateOrder(context.Background(), user.ID, 9999); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestPayOrderGrantsOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)

	order, err := env.order.CreateOrder(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	paid, err := env.order.PayOrder(user.ID, order.ID, PayRequest{
		PaymentMethod:  "CREDIT",
		InvoiceType:    "MOBILE",
		InvoiceCarrier: "/ABC1234",
	})
	if err != nil {
		t.Fatalf("pay order: %v", err)
	}
	if paid.Status != model.OrderPaid || paid.PaymentMethod != "CREDIT" {
		t.Fatalf("unexpected paid order: %+v", paid)
	}

	ent, err := env.entitlement.Resolve(&user.ID, course.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ent.Tier != TierOwned {
		t.Fatalf("expected owned after payment, got %s", ent.Tier)
	}
}

func TestPayOrderRejectsNonPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)

	order, _ := env.order.CreateOrder(ctx, user.ID, course.ID)
	if _, err := env.order.CancelOrder(user.ID, order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := env.order.PayOrder(user.ID, order.ID, PayRequest{PaymentMethod: "ATM"}); !errors.Is(err, util.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestPayOrderOwnershipCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.createUser(t, "a@test.dev")
	stranger := env.createUser(t, "b@test.dev")
	course := env.createCourse(t, false)

	order, _ := env.order.CreateOrder(ctx, buyer.ID, course.ID)

	if _, err := env.order.PayOrder(stranger.ID, order.ID, PayRequest{PaymentMethod: "CREDIT"}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := env.order.PayOrder(buyer.ID, 9999, PayRequest{PaymentMethod: "CREDIT"}); !errors.Is(err, util.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCancelThenReorder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)

	first, _ := env.order.CreateOrder(ctx, user.ID, course.ID)
	if _, err := env.order.CancelOrder(user.ID, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// 取消后可以重新下单，生成新订单
	second, err := env.order.CreateOrder(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh order after cancellation")
	}

	orders, err := env.order.ListMyOrders(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
}
