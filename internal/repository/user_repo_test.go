package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeExecer struct {
	tags  []pgconn.CommandTag
	err   error
	calls int
	roles []string
}

func (f *fakeExecer) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	tag := f.tags[f.calls]
	f.calls++
	if len(args) == 2 {
		if role, ok := args[1].(string); ok {
			f.roles = append(f.roles, role)
		}
	}
	return tag, f.err
}

func TestAttachRoles(t *testing.T) {
	t.Run("all roles resolved", func(t *testing.T) {
		exec := &fakeExecer{tags: []pgconn.CommandTag{
			pgconn.NewCommandTag("INSERT 0 1"),
			pgconn.NewCommandTag("INSERT 0 1"),
		}}
		if err := attachRoles(context.Background(), exec, 7, []string{"USER", "ADMIN"}); err != nil {
			t.Fatalf("attach roles: %v", err)
		}
		if exec.calls != 2 || exec.roles[0] != "USER" || exec.roles[1] != "ADMIN" {
			t.Fatalf("unexpected inserts: calls=%d roles=%v", exec.calls, exec.roles)
		}
	})

	t.Run("missing role aborts", func(t *testing.T) {
		// Un rol inexistente no es un error de SQL: el INSERT...SELECT
		// simplemente afecta cero filas.
		exec := &fakeExecer{tags: []pgconn.CommandTag{
			pgconn.NewCommandTag("INSERT 0 1"),
			pgconn.NewCommandTag("INSERT 0 0"),
		}}
		err := attachRoles(context.Background(), exec, 7, []string{"USER", "GHOST"})
		if !errors.Is(err, ErrRoleNotFound) {
			t.Fatalf("expected ErrRoleNotFound, got %v", err)
		}
	})

	t.Run("exec error propagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		exec := &fakeExecer{tags: []pgconn.CommandTag{pgconn.NewCommandTag("")}, err: boom}
		if err := attachRoles(context.Background(), exec, 7, []string{"USER"}); !errors.Is(err, boom) {
			t.Fatalf("expected exec error, got %v", err)
		}
	})

	t.Run("no roles is a no-op", func(t *testing.T) {
		exec := &fakeExecer{}
		if err := attachRoles(context.Background(), exec, 7, nil); err != nil {
			t.Fatalf("attach roles: %v", err)
		}
		if exec.calls != 0 {
			t.Fatalf("expected no inserts, got %d", exec.calls)
		}
	})
}
