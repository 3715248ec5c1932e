// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

type fixture struct {
	store    *task.InMemoryTaskStore
	manager  *task.Manager
	registry *task.PushConfigRegistry
	handler  *DefaultRequestHandler
}

func testCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:    "echo",
		URL:     "http://localhost:8080/",
		Version: "1.0.0",
		Capabilities: a2a.AgentCapabilities{
			Streaming:         true,
			PushNotifications: true,
		},
		DefaultInputModes: []string{a2a.MediaTypeText},
	}
}

func newFixture(t *testing.T, card *a2a.AgentCard, executor agent_execution.AgentExecutor, pushEnabled bool, opts ...Option) *fixture {
	t.Helper()

	store := task.NewInMemoryTaskStore()
	pushes := task.NewInMemoryPushNotificationConfigStore()
	manager := task.NewManager(store, event.NewHub(), task.WithPushConfigStore(pushes))
	registry := task.NewPushConfigRegistry(pushes, store, task.WithPushEnabled(pushEnabled))

	opts = append([]Option{WithPushConfigRegistry(registry)}, opts...)
	h, err := NewDefaultRequestHandler(card, executor, manager, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, h.Shutdown(ctx))
	})

	return &fixture{
		store:    store,
		manager:  manager,
		registry: registry,
		handler:  h,
	}
}

// echo works on the task, returns the user input as an artifact and completes.
var echo = agent_execution.AgentExecutorFunc(func(ctx context.Context, reqCtx *agent_execution.RequestContext, u *task.TaskUpdater) error {
	if err := u.StartWork(ctx, ""); err != nil {
		return err
	}
	artifact := &a2a.Artifact{
		ArtifactID: "echo",
		Parts:      a2a.Parts{a2a.NewTextPart(reqCtx.UserInput(" "))},
	}
	if err := u.AddArtifact(ctx, artifact, false, true); err != nil {
		return err
	}
	return u.Complete(ctx, "done")
})

// askOnce asks for more input on the first message and completes on the follow-up.
var askOnce = agent_execution.AgentExecutorFunc(func(ctx context.Context, reqCtx *agent_execution.RequestContext, u *task.TaskUpdater) error {
	if reqCtx.Task.Status.State == a2a.TaskStateSubmitted {
		if err := u.StartWork(ctx, ""); err != nil {
			return err
		}
		return u.RequiresInput(ctx, "which city?")
	}
	return u.Complete(ctx, "forecast for "+reqCtx.UserInput(" "))
})

func sendRequest(text string, blocking bool) *a2a.SendMessageRequest {
	return &a2a.SendMessageRequest{
		Request:       a2a.NewUserTextMessage(text),
		Configuration: &a2a.SendMessageConfiguration{Blocking: blocking},
	}
}

func sendTask(t *testing.T, resp *a2a.SendMessageResponse) *a2a.Task {
	t.Helper()
	require.NotNil(t, resp)
	got, ok := resp.Result.(*a2a.Task)
	require.True(t, ok, "result is %T, want *a2a.Task", resp.Result)
	return got
}

func TestNewDefaultRequestHandler(t *testing.T) {
	manager := task.NewManager(task.NewInMemoryTaskStore(), event.NewHub())

	_, err := NewDefaultRequestHandler(&a2a.AgentCard{}, echo, manager)
	assert.ErrorIs(t, err, a2a.ErrInvalidRequest)

	_, err = NewDefaultRequestHandler(testCard(), nil, manager)
	assert.Error(t, err)

	_, err = NewDefaultRequestHandler(testCard(), echo, nil)
	assert.Error(t, err)
}

func TestOnMessageSendBlocking(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", true))
	require.NoError(t, err)

	got := sendTask(t, resp)
	assert.Equal(t, a2a.TaskStateCompleted, got.Status.State)
	require.Len(t, got.Artifacts, 1)
	assert.Equal(t, []string{"hello"}, a2a.GetTextParts(got.Artifacts[0].Parts))
	assert.Equal(t, []string{"done"}, a2a.GetTextParts(got.Status.Update.Content))
}

func TestOnMessageSendNonBlocking(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", false))
	require.NoError(t, err)

	got := sendTask(t, resp)
	assert.Equal(t, a2a.TaskStateSubmitted, got.Status.State)
	assert.NotEmpty(t, got.ContextID)

	require.Eventually(t, func() bool {
		stored, err := f.manager.Get(ctx, got.ID)
		return err == nil && stored.Status.State == a2a.TaskStateCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOnMessageSendBlockingTimeout(t *testing.T) {
	ctx := t.Context()
	stopped := make(chan error, 1)
	slow := agent_execution.AgentExecutorFunc(func(ctx context.Context, _ *agent_execution.RequestContext, u *task.TaskUpdater) error {
		// StartWork fails if the cancel wins the race; the wait ends either way.
		_ = u.StartWork(ctx, "")
		<-ctx.Done()
		stopped <- ctx.Err()
		return ctx.Err()
	})
	f := newFixture(t, testCard(), slow, true, WithBlockingTimeout(50*time.Millisecond))

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", true))
	require.NoError(t, err)
	got := sendTask(t, resp)
	assert.False(t, got.Status.State.IsTerminal(), "state = %s", got.Status.State)

	canceled, err := f.handler.OnCancelTask(ctx, &a2a.CancelTaskRequest{Name: a2a.TaskName(got.ID)})
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCancelled, canceled.Status.State)

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("execution was not canceled")
	}

	// The failing executor must not overwrite the canceled state.
	require.Eventually(t, func() bool { return f.handler.running.count(got.ID) == 0 }, 5*time.Second, 10*time.Millisecond)
	stored, err := f.manager.Get(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCancelled, stored.Status.State)
}

func TestOnMessageSendFollowUp(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), askOnce, true)

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("weather", true))
	require.NoError(t, err)
	first := sendTask(t, resp)
	require.Equal(t, a2a.TaskStateInputRequired, first.Status.State)

	followUp := a2a.NewUserTextMessage("Paris")
	followUp.TaskID = first.ID
	followUp.ContextID = first.ContextID
	resp, err = f.handler.OnMessageSend(ctx, &a2a.SendMessageRequest{
		Request:       followUp,
		Configuration: &a2a.SendMessageConfiguration{Blocking: true},
	})
	require.NoError(t, err)
	second := sendTask(t, resp)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, a2a.TaskStateCompleted, second.Status.State)
	assert.Equal(t, []string{"forecast for Paris"}, a2a.GetTextParts(second.Status.Update.Content))

	t.Run("history length", func(t *testing.T) {
		full, err := f.handler.OnGetTask(ctx, &a2a.GetTaskRequest{Name: a2a.TaskName(first.ID)})
		require.NoError(t, err)
		require.Greater(t, len(full.History), 1)

		short, err := f.handler.OnGetTask(ctx, &a2a.GetTaskRequest{Name: a2a.TaskName(first.ID), HistoryLength: 1})
		require.NoError(t, err)
		require.Len(t, short.History, 1)
		assert.Equal(t, full.History[len(full.History)-1].MessageID, short.History[0].MessageID)
	})

	t.Run("terminal task", func(t *testing.T) {
		again := a2a.NewUserTextMessage("London")
		again.TaskID = first.ID
		_, err := f.handler.OnMessageSend(ctx, &a2a.SendMessageRequest{Request: again})
		assert.ErrorIs(t, err, a2a.ErrInvalidParams)
	})

	t.Run("unknown task", func(t *testing.T) {
		orphan := a2a.NewUserTextMessage("London")
		orphan.TaskID = "missing"
		_, err := f.handler.OnMessageSend(ctx, &a2a.SendMessageRequest{Request: orphan})
		assert.ErrorIs(t, err, a2a.ErrTaskNotFound)
	})
}

func TestOnMessageSendExecutorFailure(t *testing.T) {
	tests := map[string]agent_execution.AgentExecutorFunc{
		"error": func(context.Context, *agent_execution.RequestContext, *task.TaskUpdater) error {
			return errors.New("model unavailable")
		},
		"panic": func(context.Context, *agent_execution.RequestContext, *task.TaskUpdater) error {
			panic("boom")
		},
		"invalid transition": func(ctx context.Context, _ *agent_execution.RequestContext, u *task.TaskUpdater) error {
			return u.Complete(ctx, "skipped working")
		},
	}

	for name, executor := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testCard(), executor, true)

			resp, err := f.handler.OnMessageSend(t.Context(), sendRequest("hello", true))
			require.NoError(t, err)
			got := sendTask(t, resp)
			assert.Equal(t, a2a.TaskStateFailed, got.Status.State)
			assert.NotNil(t, got.Status.Update)
		})
	}
}

func TestOnMessageSendValidation(t *testing.T) {
	dataMessage := &a2a.Message{
		MessageID: "m1",
		Role:      a2a.RoleUser,
		Content:   a2a.Parts{a2a.NewDataPart(map[string]any{"city": "Paris"})},
	}

	tests := map[string]struct {
		req  *a2a.SendMessageRequest
		want error
	}{
		"nil request": {
			req:  nil,
			want: a2a.ErrInvalidRequest,
		},
		"missing message": {
			req:  &a2a.SendMessageRequest{},
			want: a2a.ErrInvalidRequest,
		},
		"message without id": {
			req:  &a2a.SendMessageRequest{Request: &a2a.Message{Role: a2a.RoleUser, Content: a2a.Parts{a2a.NewTextPart("x")}}},
			want: a2a.ErrInvalidRequest,
		},
		"unsupported content type": {
			req:  &a2a.SendMessageRequest{Request: dataMessage},
			want: a2a.ErrContentTypeNotSupported,
		},
		"negative history length": {
			req: &a2a.SendMessageRequest{
				Request:       a2a.NewUserTextMessage("x"),
				Configuration: &a2a.SendMessageConfiguration{HistoryLength: -1},
			},
			want: a2a.ErrInvalidParams,
		},
		"invalid push config": {
			req: &a2a.SendMessageRequest{
				Request:       a2a.NewUserTextMessage("x"),
				Configuration: &a2a.SendMessageConfiguration{PushNotification: &a2a.PushNotificationConfig{URL: "not a url"}},
			},
			want: a2a.ErrInvalidRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testCard(), echo, true)
			_, err := f.handler.OnMessageSend(t.Context(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOnMessageSendPushConfig(t *testing.T) {
	ctx := t.Context()

	t.Run("registered with the task", func(t *testing.T) {
		f := newFixture(t, testCard(), echo, true)
		req := sendRequest("hello", true)
		req.Configuration.PushNotification = &a2a.PushNotificationConfig{URL: "https://client.example.com/hook", Token: "secret"}

		resp, err := f.handler.OnMessageSend(ctx, req)
		require.NoError(t, err)
		got := sendTask(t, resp)

		list, err := f.handler.OnListTaskPushNotificationConfig(ctx, &a2a.ListTaskPushNotificationConfigRequest{Parent: a2a.TaskName(got.ID)})
		require.NoError(t, err)
		require.Len(t, list.Configs, 1)
		assert.Equal(t, "https://client.example.com/hook", list.Configs[0].PushNotificationConfig.URL)
	})

	t.Run("disabled creates nothing", func(t *testing.T) {
		f := newFixture(t, testCard(), echo, false)
		req := sendRequest("hello", true)
		req.Request.ContextID = "ctx-push"
		req.Configuration.PushNotification = &a2a.PushNotificationConfig{URL: "https://client.example.com/hook"}

		_, err := f.handler.OnMessageSend(ctx, req)
		require.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
		assert.Equal(t, CodePushNotificationNotSupported, Code(err))

		tasks, err := f.store.ListByContext(ctx, "ctx-push")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestOnMessageSendStream(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)

	var got []string
	for ev, err := range f.handler.OnMessageSendStream(ctx, sendRequest("hello", false)) {
		require.NoError(t, err)
		got = append(got, describe(ev))
	}
	assert.Equal(t, []string{
		"task:TASK_STATE_SUBMITTED",
		"status:TASK_STATE_WORKING:false",
		"artifact:echo",
		"status:TASK_STATE_COMPLETED:true",
	}, got)
}

func TestOnMessageSendStreamExecutorFailure(t *testing.T) {
	tests := map[string]agent_execution.AgentExecutorFunc{
		"error before work": func(context.Context, *agent_execution.RequestContext, *task.TaskUpdater) error {
			return errors.New("model unavailable")
		},
		"panic before work": func(context.Context, *agent_execution.RequestContext, *task.TaskUpdater) error {
			panic("boom")
		},
	}

	for name, executor := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testCard(), executor, true)

			var got []string
			for ev, err := range f.handler.OnMessageSendStream(t.Context(), sendRequest("hello", false)) {
				require.NoError(t, err)
				got = append(got, describe(ev))
			}
			assert.Equal(t, []string{
				"task:TASK_STATE_SUBMITTED",
				"status:TASK_STATE_WORKING:false",
				"status:TASK_STATE_FAILED:true",
			}, got)
		})
	}
}

func TestOnMessageSendStreamNotSupported(t *testing.T) {
	card := testCard()
	card.Capabilities.Streaming = false
	f := newFixture(t, card, echo, true)

	for _, err := range f.handler.OnMessageSendStream(t.Context(), sendRequest("hello", false)) {
		assert.ErrorIs(t, err, a2a.ErrUnsupportedOperation)
	}
	for _, err := range f.handler.OnResubscribeToTask(t.Context(), &a2a.TaskSubscriptionRequest{Name: "tasks/x"}) {
		assert.ErrorIs(t, err, a2a.ErrUnsupportedOperation)
	}
}

func TestOnResubscribeToTask(t *testing.T) {
	ctx := t.Context()

	release := make(chan struct{})
	gated := agent_execution.AgentExecutorFunc(func(ctx context.Context, _ *agent_execution.RequestContext, u *task.TaskUpdater) error {
		if err := u.StartWork(ctx, ""); err != nil {
			return err
		}
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		return u.Complete(ctx, "done")
	})
	f := newFixture(t, testCard(), gated, true)

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", false))
	require.NoError(t, err)
	created := sendTask(t, resp)
	require.Eventually(t, func() bool {
		cur, err := f.manager.Get(ctx, created.ID)
		return err == nil && cur.Status.State == a2a.TaskStateWorking
	}, 5*time.Second, 10*time.Millisecond)

	var got []string
	for ev, err := range f.handler.OnResubscribeToTask(ctx, &a2a.TaskSubscriptionRequest{Name: a2a.TaskName(created.ID)}) {
		require.NoError(t, err)
		got = append(got, describe(ev))
		if len(got) == 1 {
			close(release)
		}
	}
	assert.Equal(t, []string{"task:TASK_STATE_WORKING", "status:TASK_STATE_COMPLETED:true"}, got)

	t.Run("terminal task yields its snapshot", func(t *testing.T) {
		var got []string
		for ev, err := range f.handler.OnResubscribeToTask(ctx, &a2a.TaskSubscriptionRequest{Name: a2a.TaskName(created.ID)}) {
			require.NoError(t, err)
			got = append(got, describe(ev))
		}
		assert.Equal(t, []string{"task:TASK_STATE_COMPLETED"}, got)
	})

	t.Run("malformed name", func(t *testing.T) {
		for _, err := range f.handler.OnResubscribeToTask(ctx, &a2a.TaskSubscriptionRequest{Name: created.ID}) {
			assert.ErrorIs(t, err, a2a.ErrInvalidRequest)
		}
	})
}

func TestOnGetTask(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)

	tests := map[string]struct {
		req  *a2a.GetTaskRequest
		want error
	}{
		"nil request":        {req: nil, want: a2a.ErrInvalidRequest},
		"malformed name":     {req: &a2a.GetTaskRequest{Name: "task-1"}, want: a2a.ErrInvalidRequest},
		"unknown task":       {req: &a2a.GetTaskRequest{Name: "tasks/missing"}, want: a2a.ErrTaskNotFound},
		"negative history":   {req: &a2a.GetTaskRequest{Name: "tasks/missing", HistoryLength: -2}, want: a2a.ErrInvalidParams},
		"nested config name": {req: &a2a.GetTaskRequest{Name: "tasks/a/pushNotificationConfigs/b"}, want: a2a.ErrInvalidRequest},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.handler.OnGetTask(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOnCancelTask(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)

	resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", true))
	require.NoError(t, err)
	done := sendTask(t, resp)
	require.Equal(t, a2a.TaskStateCompleted, done.Status.State)

	_, err = f.handler.OnCancelTask(ctx, &a2a.CancelTaskRequest{Name: a2a.TaskName(done.ID)})
	require.ErrorIs(t, err, a2a.ErrTaskNotCancelable)
	assert.Equal(t, CodeTaskNotCancelable, Code(err))

	stored, err := f.manager.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.Version, stored.Version)

	_, err = f.handler.OnCancelTask(ctx, &a2a.CancelTaskRequest{Name: "tasks/missing"})
	assert.ErrorIs(t, err, a2a.ErrTaskNotFound)
}

func TestPushConfigOperations(t *testing.T) {
	ctx := t.Context()

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, testCard(), echo, false)

		_, err := f.handler.OnCreateTaskPushNotificationConfig(ctx, &a2a.CreateTaskPushNotificationConfigRequest{
			Parent: "tasks/t1",
			Config: &a2a.TaskPushNotificationConfig{PushNotificationConfig: &a2a.PushNotificationConfig{URL: "https://example.com"}},
		})
		assert.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
		_, err = f.handler.OnGetTaskPushNotificationConfig(ctx, &a2a.GetTaskPushNotificationConfigRequest{Name: "tasks/t1/pushNotificationConfigs/c1"})
		assert.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
		_, err = f.handler.OnListTaskPushNotificationConfig(ctx, &a2a.ListTaskPushNotificationConfigRequest{Parent: "tasks/t1"})
		assert.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
		err = f.handler.OnDeleteTaskPushNotificationConfig(ctx, &a2a.DeleteTaskPushNotificationConfigRequest{Name: "tasks/t1/pushNotificationConfigs/c1"})
		assert.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
	})

	t.Run("without registry", func(t *testing.T) {
		manager := task.NewManager(task.NewInMemoryTaskStore(), event.NewHub())
		h, err := NewDefaultRequestHandler(testCard(), echo, manager)
		require.NoError(t, err)
		_, err = h.OnListTaskPushNotificationConfig(ctx, &a2a.ListTaskPushNotificationConfigRequest{Parent: "tasks/t1"})
		assert.ErrorIs(t, err, a2a.ErrPushNotificationNotSupported)
	})

	t.Run("crud", func(t *testing.T) {
		f := newFixture(t, testCard(), echo, true)
		resp, err := f.handler.OnMessageSend(ctx, sendRequest("hello", true))
		require.NoError(t, err)
		parent := a2a.TaskName(sendTask(t, resp).ID)

		for i := range 3 {
			_, err := f.handler.OnCreateTaskPushNotificationConfig(ctx, &a2a.CreateTaskPushNotificationConfigRequest{
				Parent:   parent,
				ConfigID: fmt.Sprintf("c%d", i),
				Config:   &a2a.TaskPushNotificationConfig{PushNotificationConfig: &a2a.PushNotificationConfig{URL: "https://example.com/hook"}},
			})
			require.NoError(t, err)
		}

		page, err := f.handler.OnListTaskPushNotificationConfig(ctx, &a2a.ListTaskPushNotificationConfigRequest{Parent: parent, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, page.Configs, 2)
		assert.NotEmpty(t, page.NextPageToken)

		name := parent + "/pushNotificationConfigs/c1"
		got, err := f.handler.OnGetTaskPushNotificationConfig(ctx, &a2a.GetTaskPushNotificationConfigRequest{Name: name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)

		require.NoError(t, f.handler.OnDeleteTaskPushNotificationConfig(ctx, &a2a.DeleteTaskPushNotificationConfigRequest{Name: name}))
		_, err = f.handler.OnGetTaskPushNotificationConfig(ctx, &a2a.GetTaskPushNotificationConfigRequest{Name: name})
		assert.ErrorIs(t, err, a2a.ErrTaskNotFound)
	})
}

func TestAgentCards(t *testing.T) {
	ctx := t.Context()

	f := newFixture(t, testCard(), echo, true)
	card, err := f.handler.OnGetAgentCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo", card.Name)

	card.Name = "changed"
	again, err := f.handler.OnGetAgentCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo", again.Name)

	_, err = f.handler.OnGetAuthenticatedExtendedCard(ctx)
	assert.ErrorIs(t, err, a2a.ErrAuthenticatedExtendedCardNotConfigured)
	assert.Equal(t, CodeAuthenticatedExtendedCardNotConfigured, Code(err))

	extended := testCard()
	extended.Description = "with private skills"

	t.Run("not advertised", func(t *testing.T) {
		f := newFixture(t, testCard(), echo, true, WithExtendedCard(extended))
		_, err := f.handler.OnGetAuthenticatedExtendedCard(ctx)
		assert.ErrorIs(t, err, a2a.ErrAuthenticatedExtendedCardNotConfigured)
	})

	t.Run("advertised", func(t *testing.T) {
		public := testCard()
		public.SupportsAuthenticatedExtendedCard = true
		f := newFixture(t, public, echo, true, WithExtendedCard(extended))
		got, err := f.handler.OnGetAuthenticatedExtendedCard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "with private skills", got.Description)
	})
}

func TestShutdownRejectsNewSends(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, testCard(), echo, true)
	require.NoError(t, f.handler.Shutdown(ctx))

	req := sendRequest("hello", false)
	req.Request.ContextID = "ctx-shutdown"
	_, err := f.handler.OnMessageSend(ctx, req)
	require.ErrorIs(t, err, a2a.ErrUnsupportedOperation)

	tasks, err := f.store.ListByContext(ctx, "ctx-shutdown")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, a2a.TaskStateFailed, tasks[0].Status.State)
}

func describe(ev a2a.Event) string {
	switch ev := ev.(type) {
	case *a2a.Task:
		return fmt.Sprintf("task:%s", ev.Status.State)
	case *a2a.TaskStatusUpdateEvent:
		return fmt.Sprintf("status:%s:%t", ev.Status.State, ev.Final)
	case *a2a.TaskArtifactUpdateEvent:
		return "artifact:" + ev.Artifact.ArtifactID
	case *a2a.Message:
		return "message:" + ev.MessageID
	}
	return fmt.Sprintf("%T", ev)
}
