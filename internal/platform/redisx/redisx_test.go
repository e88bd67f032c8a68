package redisx

import (
	"context"
	"testing"
)

func TestNewWithoutAddrDisablesRedis(t *testing.T) {
	rdb, err := New(context.Background(), Config{})
	if err != nil || rdb != nil {
		t.Fatalf("want nil client and nil error, got %v %v", rdb, err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("focustube:", "verdict", "abc", "calculus"); got != "focustube:verdict:abc:calculus" {
		t.Fatalf("Key: got %q", got)
	}
	if got := Key("", "verdict", "abc"); got != "verdict:abc" {
		t.Fatalf("Key without prefix: got %q", got)
	}
}
