package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	"github.com/repolens/repolens/internal/apikey/repository"
	"github.com/repolens/repolens/internal/usercontext"
	"github.com/repolens/repolens/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (apikeydomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn := db.NewTest(t, &apikeydomain.APIKey{})
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, conn, node
}

func ownerContext(node *snowflake.Node) (context.Context, snowflake.ID) {
	ownerID := node.Generate()
	return usercontext.WithUserID(context.Background(), ownerID), ownerID
}

func TestCreateGeneratesSecret(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx, _ := ownerContext(node)

	created, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "production", UsageLimit: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(created.Key, "sk_") {
		t.Fatalf("expected sk_ prefix, got %q", created.Key)
	}
	if !apikeydomain.ValidKeyFormat(created.Key) {
		t.Fatalf("secret %q does not match the key format", created.Key)
	}
	if created.Usage != 0 {
		t.Fatalf("expected zero usage, got %d", created.Usage)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Key == created.Key {
		t.Fatal("expected masked key on read, got plaintext")
	}
	if !strings.HasPrefix(got.Key, created.Key[:4]) || !strings.HasSuffix(got.Key, created.Key[len(created.Key)-4:]) {
		t.Fatalf("masked key %q does not keep the edges of %q", got.Key, created.Key)
	}
	if !strings.Contains(got.Key, "•") {
		t.Fatalf("masked key %q has no mask characters", got.Key)
	}
}

func TestCreateSecretsAreUnique(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx, _ := ownerContext(node)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		created, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "key", UsageLimit: 1})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[created.Key] {
			t.Fatalf("duplicate secret generated: %q", created.Key)
		}
		seen[created.Key] = true
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx, _ := ownerContext(node)

	if _, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "  ", UsageLimit: 1}); !errors.Is(err, apikeydomain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "k", UsageLimit: -1}); !errors.Is(err, apikeydomain.ErrInvalidUsageLimit) {
		t.Fatalf("expected ErrInvalidUsageLimit, got %v", err)
	}

	// A zero limit is a valid key that can never be consumed.
	if _, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "frozen", UsageLimit: 0}); err != nil {
		t.Fatalf("expected zero limit to be allowed, got %v", err)
	}
}

func TestCreateRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), apikeydomain.CreateRequest{Name: "k", UsageLimit: 1})
	if !errors.Is(err, apikeydomain.ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
}

func TestListIsOwnerScoped(t *testing.T) {
	svc, _, node := newTestService(t)
	aliceCtx, _ := ownerContext(node)
	bobCtx, _ := ownerContext(node)

	if _, err := svc.Create(aliceCtx, apikeydomain.CreateRequest{Name: "alice-key", UsageLimit: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(bobCtx, apikeydomain.CreateRequest{Name: "bob-key", UsageLimit: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := svc.List(aliceCtx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if keys[0].Name != "alice-key" {
		t.Fatalf("expected alice-key, got %q", keys[0].Name)
	}
}

func TestGetForeignKeyIsNotFound(t *testing.T) {
	svc, _, node := newTestService(t)
	aliceCtx, _ := ownerContext(node)
	bobCtx, _ := ownerContext(node)

	created, err := svc.Create(aliceCtx, apikeydomain.CreateRequest{Name: "alice-key", UsageLimit: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(bobCtx, created.ID); !errors.Is(err, apikeydomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign key, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx, _ := ownerContext(node)

	created, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "old", UsageLimit: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, apikeydomain.UpdateRequest{}); !errors.Is(err, apikeydomain.ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}

	name := "new"
	limit := int64(10)
	updated, err := svc.Update(ctx, created.ID, apikeydomain.UpdateRequest{Name: &name, UsageLimit: &limit})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new" || updated.UsageLimit != 10 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(ctx, "123456789", apikeydomain.UpdateRequest{Name: &name}); !errors.Is(err, apikeydomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestDeleteIsIrreversible(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx, _ := ownerContext(node)

	created, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "doomed", UsageLimit: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, apikeydomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, apikeydomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}
