package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zaibaki/auth-backend/internal/domain"
)

func seedUser(t *testing.T, repo *mockUserRepo, email string) domain.User {
	t.Helper()
	user, err := repo.Create(context.Background(), domain.User{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Provider:  domain.ProviderLocal,
		Roles:     []string{string(domain.RoleUser)},
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestVerificationService_IssueReplacesPriorToken(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := NewVerificationService(tokens, users, 24*time.Hour)
	user := seedUser(t, users, "jane@x.com")

	first, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh token string on reissue")
	}
	if tokens.count() != 1 {
		t.Fatalf("expected exactly one live token, got %d", tokens.count())
	}

	if _, err := svc.Redeem(context.Background(), first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalidated first token to fail redeem, got %v", err)
	}
}

func TestVerificationService_RedeemExactlyOnce(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := NewVerificationService(tokens, users, 24*time.Hour)
	user := seedUser(t, users, "jane@x.com")

	token, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	redeemed, err := svc.Redeem(context.Background(), token)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !redeemed.EmailVerified {
		t.Fatalf("expected user to come back verified")
	}
	stored, err := users.GetByID(context.Background(), user.ID)
	if err != nil || !stored.EmailVerified {
		t.Fatalf("expected stored user verified, got %+v err %v", stored, err)
	}

	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected second redeem to fail with ErrInvalidToken, got %v", err)
	}
}

func TestVerificationService_RedeemUnknownToken(t *testing.T) {
	svc := NewVerificationService(newMockTokenRepo(), newMockUserRepo(), 24*time.Hour)

	if _, err := svc.Redeem(context.Background(), "no-such-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerificationService_RedeemExpiredDeletesToken(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := NewVerificationService(tokens, users, 24*time.Hour)
	user := seedUser(t, users, "jane@x.com")

	token, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Adelantar el reloj del servicio más allá del TTL.
	svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }

	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if tokens.count() != 0 {
		t.Fatalf("expected expired token to be deleted")
	}
	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry deletion, got %v", err)
	}

	stored, err := users.GetByID(context.Background(), user.ID)
	if err != nil || stored.EmailVerified {
		t.Fatalf("expected user to remain unverified, got %+v err %v", stored, err)
	}
}

// racingTokenRepo borra la fila apenas se lee, simulando otro canje del mismo
// token que gana el borrado entre la lectura y el Delete.
type racingTokenRepo struct {
	*mockTokenRepo
}

func (r *racingTokenRepo) GetByToken(ctx context.Context, tokenString string) (domain.EmailVerificationToken, error) {
	token, err := r.mockTokenRepo.GetByToken(ctx, tokenString)
	if err != nil {
		return token, err
	}
	_ = r.mockTokenRepo.Delete(ctx, token.ID)
	return token, nil
}

func TestVerificationService_RedeemLosesDeleteRace(t *testing.T) {
	users := newMockUserRepo()
	tokens := &racingTokenRepo{mockTokenRepo: newMockTokenRepo()}
	svc := NewVerificationService(tokens, users, 24*time.Hour)
	user := seedUser(t, users, "jane@x.com")

	token, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected losing redeem to fail with ErrInvalidToken, got %v", err)
	}
}

func TestVerificationService_HasLiveToken(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := NewVerificationService(tokens, users, 24*time.Hour)
	user := seedUser(t, users, "jane@x.com")

	live, err := svc.HasLiveToken(context.Background(), user)
	if err != nil || live {
		t.Fatalf("expected no live token, got live=%v err=%v", live, err)
	}

	if _, err := svc.Issue(context.Background(), user); err != nil {
		t.Fatalf("issue: %v", err)
	}
	live, err = svc.HasLiveToken(context.Background(), user)
	if err != nil || !live {
		t.Fatalf("expected live token, got live=%v err=%v", live, err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	live, err = svc.HasLiveToken(context.Background(), user)
	if err != nil || live {
		t.Fatalf("expected expired token to not count as live, got live=%v err=%v", live, err)
	}
}
