package formtoken

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/ticket-web/internal/persistence"
)

func newIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", time.Minute, persistence.NewMemory())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestClaimOnce(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)
	token, err := issuer.Issue("create-ticket")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	first, err := issuer.Claim(ctx, token, "create-ticket")
	if err != nil || first.Duplicate {
		t.Fatalf("first claim should be fresh: %+v %v", first, err)
	}

	second, err := issuer.Claim(ctx, token, "create-ticket")
	if err != nil || !second.Duplicate || second.Result != "" {
		t.Fatalf("second claim should be a pending duplicate: %+v %v", second, err)
	}

	if err := issuer.Complete(ctx, first, "42"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	third, _ := issuer.Claim(ctx, token, "create-ticket")
	if !third.Duplicate || third.Result != "42" {
		t.Fatalf("duplicate should report the first result: %+v", third)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)
	token, _ := issuer.Issue("create-ticket")

	claim, _ := issuer.Claim(ctx, token, "create-ticket")
	if err := issuer.Release(ctx, claim); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := issuer.Claim(ctx, token, "create-ticket")
	if err != nil || again.Duplicate {
		t.Fatalf("released token should be claimable again: %+v %v", again, err)
	}
}

func TestClaimRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)
	token, _ := issuer.Issue("create-ticket")

	if _, err := issuer.Claim(ctx, token, "update-status"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("purpose mismatch must be rejected, got %v", err)
	}
	if _, err := issuer.Claim(ctx, "", "create-ticket"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token must be rejected, got %v", err)
	}

	other, _ := NewIssuer("another-secret", time.Minute, persistence.NewMemory())
	forged, _ := other.Issue("create-ticket")
	if _, err := issuer.Claim(ctx, forged, "create-ticket"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with another key must be rejected, got %v", err)
	}
}

func TestClaimRejectsExpired(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }
	token, _ := issuer.Issue("create-ticket")

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := issuer.Claim(ctx, token, "create-ticket"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer(" ", time.Minute, persistence.NewMemory()); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
