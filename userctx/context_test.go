package userctx

import (
	"context"
	"testing"
)

func TestUser(t *testing.T) {
	ctx := context.Background()
	if got := User(ctx); got != AnonymousUser {
		t.Errorf("User() = %q, want %q", got, AnonymousUser)
	}
	if !IsAnonymous(ctx) {
		t.Error("empty context should be anonymous")
	}
	if got := User(SetUser(ctx, "")); got != AnonymousUser {
		t.Errorf("empty user should fall back, got %q", got)
	}

	ctx = SetUser(ctx, "ana@planta.example")
	if got := User(ctx); got != "ana@planta.example" {
		t.Errorf("User() = %q", got)
	}
	if IsAnonymous(ctx) {
		t.Error("context with user reported anonymous")
	}
}

func TestUserID(t *testing.T) {
	if got := UserID(context.Background()); got != "" {
		t.Errorf("UserID() = %q, want empty", got)
	}
	if got := UserID(SetUserID(context.Background(), "auth|42")); got != "auth|42" {
		t.Errorf("UserID() = %q", got)
	}
}
