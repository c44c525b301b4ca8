package handler_test

import (
	"context"
	"testing"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler"
)

func TestRegisterGetAndList(t *testing.T) {
	name := "test-handler-register-get-list"
	handler.Register(handler.Descriptor{
		Name:           name,
		RequiredFields: []string{"graph"},
		ResultShape:    "path",
		Invoke: func(ctx context.Context, request []byte) ([]byte, error) {
			return request, nil
		},
	})

	d, ok := handler.Get(name)
	if !ok {
		t.Fatal("expected registered handler to be found")
	}
	if d.ResultShape != "path" {
		t.Fatalf("unexpected result shape: %q", d.ResultShape)
	}

	found := false
	for _, d := range handler.List() {
		if d.Name == name {
			found = true
		}
	}
	if !found {
		t.Fatal("expected registered handler in List()")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	name := "test-handler-duplicate"
	handler.Register(handler.Descriptor{Name: name, Invoke: func(ctx context.Context, request []byte) ([]byte, error) {
		return nil, nil
	}})

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	handler.Register(handler.Descriptor{Name: name, Invoke: func(ctx context.Context, request []byte) ([]byte, error) {
		return nil, nil
	}})
}

func TestGetMissingHandler(t *testing.T) {
	if _, ok := handler.Get("does-not-exist"); ok {
		t.Fatal("expected miss for unregistered handler")
	}
}
