package service_test

import (
	"testing"

	"github.com/msomdec/sordb/internal/service"
)

func TestTokenBucketBurstThenDeny(t *testing.T) {
	tb := service.NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow("client") {
			t.Fatalf("request %d within burst denied", i)
		}
	}
	if tb.Allow("client") {
		t.Fatal("request over burst capacity allowed")
	}
}

func TestTokenBucketKeysIndependent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)

	if !tb.Allow("a") {
		t.Fatal("first request for a denied")
	}
	if tb.Allow("a") {
		t.Fatal("second request for a allowed")
	}
	if !tb.Allow("b") {
		t.Fatal("b must have its own bucket")
	}
}

func TestTokenBucketClose(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)

	tb.Close()
	tb.Close() // idempotent

	if !tb.Allow("client") {
		t.Fatal("limiter must keep serving after Close")
	}
}
