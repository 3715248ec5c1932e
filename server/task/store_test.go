// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	a2a "github.com/go-a2a/a2a-engine"
)

var taskOpts = cmp.Options{
	cmpopts.EquateEmpty(),
	cmpopts.EquateApproxTime(time.Microsecond),
}

// newTestDB opens a private in-memory SQLite database. A single connection
// keeps every statement on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newDatabaseTaskStore(t *testing.T, db *gorm.DB) *DatabaseTaskStore {
	t.Helper()

	store, err := NewDatabaseTaskStore(DatabaseTaskStoreConfig{DB: db, CreateTable: true})
	if err != nil {
		t.Fatalf("NewDatabaseTaskStore() error: %v", err)
	}
	if err := store.Initialize(t.Context()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return store
}

func taskStores(t *testing.T) map[string]TaskStore {
	return map[string]TaskStore{
		"memory":   NewInMemoryTaskStore(),
		"database": newDatabaseTaskStore(t, newTestDB(t)),
	}
}

func sampleTask(t *testing.T) *a2a.Task {
	t.Helper()

	msg := userMessage("m1", "hello")
	msg.Metadata = map[string]any{"origin": "test"}
	task, err := NewTask(msg)
	if err != nil {
		t.Fatal(err)
	}
	task.Artifacts = []*a2a.Artifact{{
		ArtifactID: "a1",
		Name:       "report",
		Parts:      a2a.Parts{a2a.NewTextPart("result"), a2a.NewDataPart(map[string]any{"score": 0.5})},
	}}
	task.SealedArtifacts = []string{"a1"}
	return task
}

func TestTaskStoreRoundTrip(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			want := sampleTask(t)

			if err := store.Create(ctx, want); err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			got, err := store.Get(ctx, want.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if diff := cmp.Diff(want, got, taskOpts); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}

			got.History[0].MessageID = "changed"
			again, err := store.Get(ctx, want.ID)
			if err != nil {
				t.Fatal(err)
			}
			if again.History[0].MessageID != "m1" {
				t.Errorf("store returned shared state")
			}
		})
	}
}

func TestTaskStoreCreateDuplicate(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			task := sampleTask(t)
			if err := store.Create(t.Context(), task); err != nil {
				t.Fatal(err)
			}
			if err := store.Create(t.Context(), task); !errors.Is(err, ErrTaskExists) {
				t.Errorf("second Create() error = %v, want ErrTaskExists", err)
			}
		})
	}
}

func TestTaskStoreUpdateCompareAndSwap(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			cur := sampleTask(t)
			if err := store.Create(ctx, cur); err != nil {
				t.Fatal(err)
			}

			next, _, err := ApplyStatus(cur, a2a.TaskStateWorking, nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := store.Update(ctx, next, cur.Version); err != nil {
				t.Fatalf("Update() error: %v", err)
			}

			stale, _, err := ApplyStatus(cur, a2a.TaskStateRejected, nil)
			if err != nil {
				t.Fatal(err)
			}
			err = store.Update(ctx, stale, cur.Version)
			if !errors.Is(err, a2a.ErrVersionConflict) {
				t.Fatalf("stale Update() error = %v, want ErrVersionConflict", err)
			}

			got, err := store.Get(ctx, cur.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Status.State != a2a.TaskStateWorking || got.Version != 2 {
				t.Errorf("stored task = %s v%d, want WORKING v2", got.Status.State, got.Version)
			}
		})
	}
}

func TestTaskStoreConcurrentUpdates(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			cur := sampleTask(t)
			cur.Status.State = a2a.TaskStateWorking
			if err := store.Create(ctx, cur); err != nil {
				t.Fatal(err)
			}

			const writers = 8
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				winners  int
				failures []error
			)
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					next, _, err := ApplyStatus(cur, a2a.TaskStateWorking, a2a.NewAgentTextMessage(fmt.Sprint(i), "", ""))
					if err == nil {
						err = store.Update(ctx, next, cur.Version)
					}
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						winners++
					case !errors.Is(err, a2a.ErrVersionConflict):
						failures = append(failures, err)
					}
				}()
			}
			wg.Wait()

			if winners != 1 {
				t.Errorf("%d writers succeeded, want exactly 1", winners)
			}
			for _, err := range failures {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTaskStoreNotFound(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			missing := sampleTask(t)

			if _, err := store.Get(ctx, missing.ID); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("Get() error = %v, want ErrTaskNotFound", err)
			}
			if err := store.Update(ctx, missing, 1); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("Update() error = %v, want ErrTaskNotFound", err)
			}
			if err := store.Delete(ctx, missing.ID); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("Delete() error = %v, want ErrTaskNotFound", err)
			}
		})
	}
}

func TestTaskStoreDelete(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			task := sampleTask(t)
			if err := store.Create(ctx, task); err != nil {
				t.Fatal(err)
			}
			if err := store.Delete(ctx, task.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := store.Get(ctx, task.ID); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrTaskNotFound", err)
			}
		})
	}
}

func TestTaskStoreListByContext(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			var want []string
			for i := range 3 {
				msg := userMessage(fmt.Sprintf("m%d", i), "hi")
				msg.ContextID = "conversation"
				task, err := NewTask(msg)
				if err != nil {
					t.Fatal(err)
				}
				if err := store.Create(ctx, task); err != nil {
					t.Fatal(err)
				}
				want = append(want, task.ID)
			}
			if err := store.Create(ctx, sampleTask(t)); err != nil {
				t.Fatal(err)
			}

			tasks, err := store.ListByContext(ctx, "conversation")
			if err != nil {
				t.Fatalf("ListByContext() error: %v", err)
			}
			var got []string
			for _, task := range tasks {
				got = append(got, task.ID)
			}
			if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("ListByContext() mismatch (-want +got):\n%s", diff)
			}

			none, err := store.ListByContext(ctx, "unknown")
			if err != nil || len(none) != 0 {
				t.Errorf("ListByContext(unknown) = %v, %v; want no tasks", none, err)
			}
		})
	}
}

func TestInMemoryTaskStoreListByContextOrder(t *testing.T) {
	store := NewInMemoryTaskStore()
	var want []string
	for i := range 10 {
		msg := userMessage(fmt.Sprintf("m%d", i), "hi")
		msg.ContextID = "conversation"
		task, err := NewTask(msg)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Create(t.Context(), task); err != nil {
			t.Fatal(err)
		}
		want = append(want, task.ID)
	}

	tasks, err := store.ListByContext(t.Context(), "conversation")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, task := range tasks {
		got = append(got, task.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListByContext() order mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskStoreRejectsInvalidTask(t *testing.T) {
	for name, store := range taskStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Create(t.Context(), &a2a.Task{ID: "t"})
			if !errors.Is(err, a2a.ErrInvalidRequest) {
				t.Errorf("Create() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestDatabaseTaskStoreInternalErrors(t *testing.T) {
	// Without Initialize the table does not exist.
	store, err := NewDatabaseTaskStore(DatabaseTaskStoreConfig{DB: newTestDB(t)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.Get(context.Background(), "task-1")
	if !errors.Is(err, a2a.ErrInternal) {
		t.Errorf("Get() error = %v, want ErrInternal", err)
	}

	var storeErr *TaskStoreError
	if !errors.As(err, &storeErr) || storeErr.Operation != "get" {
		t.Errorf("Get() error = %#v, want *TaskStoreError for get", err)
	}
}

func TestNewDatabaseTaskStoreNilDB(t *testing.T) {
	if _, err := NewDatabaseTaskStore(DatabaseTaskStoreConfig{}); err == nil {
		t.Error("NewDatabaseTaskStore() with nil DB should fail")
	}
}

func pushStores(t *testing.T) map[string]PushNotificationConfigStore {
	db, err := NewDatabasePushNotificationConfigStore(newTestDB(t), true)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Initialize(t.Context()); err != nil {
		t.Fatal(err)
	}
	return map[string]PushNotificationConfigStore{
		"memory":   NewInMemoryPushNotificationConfigStore(),
		"database": db,
	}
}

func webhook(id string) *a2a.PushNotificationConfig {
	return &a2a.PushNotificationConfig{
		ID:    id,
		URL:   "https://hooks.example.com/" + id,
		Token: "tok-" + id,
		Authentication: &a2a.AuthenticationInfo{
			Schemes: []string{"Bearer"},
		},
	}
}

func TestPushConfigStoreSaveKeepsOrder(t *testing.T) {
	for name, store := range pushStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			for _, id := range []string{"c1", "c2", "c3"} {
				if _, err := store.Save(ctx, "task-1", webhook(id)); err != nil {
					t.Fatalf("Save(%s) error: %v", id, err)
				}
			}
			if _, err := store.Save(ctx, "task-2", webhook("c1")); err != nil {
				t.Fatal(err)
			}

			updated := webhook("c1")
			updated.URL = "https://hooks.example.com/moved"
			entry, err := store.Save(ctx, "task-1", updated)
			if err != nil {
				t.Fatal(err)
			}

			entries, err := store.List(ctx, "task-1", 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, e := range entries {
				ids = append(ids, e.Config.ID)
			}
			if diff := cmp.Diff([]string{"c1", "c2", "c3"}, ids); diff != "" {
				t.Errorf("List() order mismatch (-want +got):\n%s", diff)
			}
			if entries[0].Seq != entry.Seq || entries[0].Config.URL != updated.URL {
				t.Errorf("replaced config = %+v, want seq %d with the new URL", entries[0], entry.Seq)
			}

			page, err := store.List(ctx, "task-1", entries[0].Seq, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(page) != 1 || page[0].Config.ID != "c2" {
				t.Errorf("List(after c1, 1) = %v, want [c2]", page)
			}
		})
	}
}

func TestPushConfigStoreGetDelete(t *testing.T) {
	for name, store := range pushStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			want := webhook("c1")
			if _, err := store.Save(ctx, "task-1", want); err != nil {
				t.Fatal(err)
			}

			got, err := store.Get(ctx, "task-1", "c1")
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if diff := cmp.Diff(want, got.Config); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}

			if err := store.Delete(ctx, "task-1", "c1"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := store.Get(ctx, "task-1", "c1"); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrTaskNotFound", err)
			}
			if err := store.Delete(ctx, "task-1", "c1"); !errors.Is(err, a2a.ErrTaskNotFound) {
				t.Errorf("second Delete() error = %v, want ErrTaskNotFound", err)
			}
		})
	}
}

func TestPushConfigStoreDeleteAll(t *testing.T) {
	for name, store := range pushStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			for _, id := range []string{"c1", "c2"} {
				if _, err := store.Save(ctx, "task-1", webhook(id)); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := store.Save(ctx, "task-2", webhook("c9")); err != nil {
				t.Fatal(err)
			}

			if err := store.DeleteAll(ctx, "task-1"); err != nil {
				t.Fatalf("DeleteAll() error: %v", err)
			}
			left, err := store.List(ctx, "task-1", 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(left) != 0 {
				t.Errorf("%d configs left for task-1", len(left))
			}
			other, err := store.List(ctx, "task-2", 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(other) != 1 {
				t.Errorf("DeleteAll removed configs of another task")
			}
		})
	}
}

func TestPushConfigStoreRejectsInvalidURL(t *testing.T) {
	for name, store := range pushStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Save(t.Context(), "task-1", &a2a.PushNotificationConfig{ID: "c1", URL: "not a url"})
			if !errors.Is(err, a2a.ErrInvalidRequest) {
				t.Errorf("Save() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}
