package saga_test

import (
	"testing"

	"github.com/xraph/onboard/saga"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := saga.NewRegistry()

	saga.RegisterDefinition(reg, saga.NewSaga("signup", func(_ *saga.Saga, _ signupInput) error {
		return nil
	}))

	if _, ok := reg.Get("signup"); !ok {
		t.Fatal("expected registered kind to be found")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("expected unregistered kind to be absent")
	}
}

func TestRegistry_RunnerUnmarshalsInput(t *testing.T) {
	reg := saga.NewRegistry()

	var got signupInput
	saga.RegisterDefinition(reg, saga.NewSaga("signup", func(_ *saga.Saga, in signupInput) error {
		got = in
		return nil
	}))

	runner, _ := reg.Get("signup")
	if err := runner(nil, []byte(`{"userId":"user_9","email":"x@example.com"}`)); err != nil {
		t.Fatalf("runner: %v", err)
	}
	if got.UserID != "user_9" || got.Email != "x@example.com" {
		t.Errorf("input = %+v", got)
	}
}

func TestRegistry_RunnerRejectsMalformedInput(t *testing.T) {
	reg := saga.NewRegistry()
	saga.RegisterDefinition(reg, saga.NewSaga("signup", func(_ *saga.Saga, _ signupInput) error {
		return nil
	}))

	runner, _ := reg.Get("signup")
	if err := runner(nil, []byte(`{not json`)); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestRegistry_Kinds(t *testing.T) {
	reg := saga.NewRegistry()
	saga.RegisterDefinition(reg, saga.NewSaga("a", func(_ *saga.Saga, _ struct{}) error { return nil }))
	saga.RegisterDefinition(reg, saga.NewSaga("b", func(_ *saga.Saga, _ struct{}) error { return nil }))

	kinds := reg.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d: %v", len(kinds), kinds)
	}
}
