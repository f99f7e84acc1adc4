package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
)

type stubResponder struct {
	reply string
	err   error
	got   []string
}

func (s *stubResponder) Respond(_ context.Context, text string) (string, error) {
	s.got = append(s.got, text)
	return s.reply, s.err
}

type recordingWriter struct {
	events []a2a.Event
	failAt int // 1-based index of the write that fails; 0 never
}

func (w *recordingWriter) Write(_ context.Context, event a2a.Event) error {
	if w.failAt > 0 && len(w.events)+1 == w.failAt {
		return errors.New("queue closed")
	}
	w.events = append(w.events, event)
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	records []Record
}

func (p *recordingPublisher) Publish(topic string, payload any) {
	if topic != TopicEvent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, payload.(Record))
}

func newRequest(stored *a2a.Task, parts ...a2a.Part) *a2asrv.RequestContext {
	return &a2asrv.RequestContext{
		Message:    a2a.NewMessage(a2a.MessageRoleUser, parts...),
		TaskID:     a2a.TaskID("task-1"),
		ContextID:  "ctx-1",
		StoredTask: stored,
	}
}

func TestRun_SuccessEmitsArtifactThenCompleted(t *testing.T) {
	t.Parallel()

	responder := &stubResponder{reply: "X"}
	pub := &recordingPublisher{}
	w := &recordingWriter{}
	err := NewExecutor(responder, pub, nil).Run(context.Background(),
		newRequest(nil, a2a.TextPart{Text: "김철수에게 인사해줘"}), w)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(w.events) != 4 {
		t.Fatalf("wrote %d events; want 4 (task, working, artifact, completed)", len(w.events))
	}
	submitted, ok := w.events[0].(*a2a.Task)
	if !ok || submitted.Status.State != a2a.TaskStateSubmitted {
		t.Fatalf("event 0 = %#v; want submitted task", w.events[0])
	}
	working, ok := w.events[1].(*a2a.TaskStatusUpdateEvent)
	if !ok || working.Status.State != a2a.TaskStateWorking || working.Final {
		t.Fatalf("event 1 = %#v; want non-final working status", w.events[1])
	}
	if got := messageText(working.Status.Message); got != WorkingNotice {
		t.Fatalf("working message = %q; want %q", got, WorkingNotice)
	}

	artifacts := 0
	for _, ev := range w.events {
		if a, ok := ev.(*a2a.TaskArtifactUpdateEvent); ok {
			artifacts++
			if a.Artifact.Name != ArtifactName {
				t.Fatalf("artifact name = %q; want %q", a.Artifact.Name, ArtifactName)
			}
			if got := partsText(a.Artifact.Parts); got != "X" {
				t.Fatalf("artifact text = %q; want X", got)
			}
		}
	}
	if artifacts != 1 {
		t.Fatalf("got %d artifacts; want exactly 1", artifacts)
	}

	completed, ok := w.events[3].(*a2a.TaskStatusUpdateEvent)
	if !ok || completed.Status.State != a2a.TaskStateCompleted || !completed.Final {
		t.Fatalf("last event = %#v; want final completed status", w.events[3])
	}

	if len(responder.got) != 1 || responder.got[0] != "김철수에게 인사해줘" {
		t.Fatalf("responder got %q", responder.got)
	}
	if len(pub.records) != 4 {
		t.Fatalf("published %d records; want 4", len(pub.records))
	}
	if pub.records[2].Kind != KindArtifactUpdate || pub.records[2].TaskID != "task-1" {
		t.Fatalf("published artifact record = %+v", pub.records[2])
	}
}

func TestRun_ErrorEndsFailedWithoutArtifact(t *testing.T) {
	t.Parallel()

	errs := []error{
		errors.New("boom"),
		&toolclient.Error{Kind: toolclient.KindTransport, Op: "call_tool", Tool: "say_hello", Err: errors.New("connection refused")},
		&toolclient.Error{Kind: toolclient.KindSession, Op: "call_tool", Tool: "say_hello", Err: errors.New("unsupported protocol version")},
		&toolclient.Error{Kind: toolclient.KindInvocation, Op: "call_tool", Tool: "say_hello", Err: errors.New("name is required")},
	}
	for _, cause := range errs {
		w := &recordingWriter{}
		err := NewExecutor(&stubResponder{err: cause}, nil, nil).Run(context.Background(),
			newRequest(nil, a2a.TextPart{Text: "철수에게"}), w)
		if err != nil {
			t.Fatalf("Run returned error %v; failures must end the task instead", err)
		}

		for _, ev := range w.events {
			if _, ok := ev.(*a2a.TaskArtifactUpdateEvent); ok {
				t.Fatalf("%v: artifact emitted on failure", cause)
			}
		}
		last, ok := w.events[len(w.events)-1].(*a2a.TaskStatusUpdateEvent)
		if !ok || last.Status.State != a2a.TaskStateFailed || !last.Final {
			t.Fatalf("%v: last event = %#v; want final failed status", cause, w.events[len(w.events)-1])
		}
		msg := messageText(last.Status.Message)
		if !strings.HasPrefix(msg, "오류 발생: ") {
			t.Fatalf("failure message %q lacks prefix", msg)
		}
		var te *toolclient.Error
		inner := cause
		if errors.As(cause, &te) {
			inner = te.Err
		}
		if !strings.Contains(msg, inner.Error()) {
			t.Fatalf("failure message %q does not describe %q", msg, inner)
		}
	}
}

func TestFailureMessage_PrefixByKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{errors.New("boom"), "오류 발생: boom"},
		{&toolclient.Error{Kind: toolclient.KindTransport, Err: errors.New("refused")}, "오류 발생: MCP 서버에 연결할 수 없습니다: refused"},
		{&toolclient.Error{Kind: toolclient.KindSession, Err: errors.New("rejected")}, "오류 발생: MCP 세션을 시작할 수 없습니다: rejected"},
		{&toolclient.Error{Kind: toolclient.KindInvocation, Tool: "say_hello", Err: errors.New("bad")}, "오류 발생: 도구 say_hello 호출 실패: bad"},
		{&toolclient.Error{Kind: toolclient.KindInvocation, Err: errors.New("bad")}, "오류 발생: 도구 호출 실패: bad"},
	}
	for _, tc := range tests {
		if got := FailureMessage(tc.err); got != tc.want {
			t.Errorf("FailureMessage(%v) = %q; want %q", tc.err, got, tc.want)
		}
	}
}

func TestRun_StoredTaskSkipsSubmitted(t *testing.T) {
	t.Parallel()

	stored := &a2a.Task{ID: "task-1", ContextID: "ctx-1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}}
	w := &recordingWriter{}
	if err := NewExecutor(&stubResponder{reply: "ok"}, nil, nil).Run(context.Background(),
		newRequest(stored, a2a.TextPart{Text: "안녕"}), w); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(w.events) != 3 {
		t.Fatalf("wrote %d events; want 3", len(w.events))
	}
	if _, ok := w.events[0].(*a2a.Task); ok {
		t.Fatalf("submitted task emitted for a stored task")
	}
}

func TestRun_NoTextPartUsesDefault(t *testing.T) {
	t.Parallel()

	responder := &stubResponder{reply: "ok"}
	req := newRequest(nil, a2a.DataPart{Data: map[string]any{"k": 1}})
	if err := NewExecutor(responder, nil, nil).Run(context.Background(), req, &recordingWriter{}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(responder.got) != 1 || responder.got[0] != DefaultText {
		t.Fatalf("responder got %q; want %q", responder.got, DefaultText)
	}
}

func TestRun_EmptyTextPartUsesDefault(t *testing.T) {
	t.Parallel()

	responder := &stubResponder{reply: "ok"}
	req := newRequest(nil, a2a.TextPart{Text: ""})
	if err := NewExecutor(responder, nil, nil).Run(context.Background(), req, &recordingWriter{}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(responder.got) != 1 || responder.got[0] != DefaultText {
		t.Fatalf("responder got %q; want %q", responder.got, DefaultText)
	}
}

func TestRun_FirstTextPartWins(t *testing.T) {
	t.Parallel()

	responder := &stubResponder{reply: "ok"}
	req := newRequest(nil,
		a2a.DataPart{Data: map[string]any{"k": 1}},
		a2a.TextPart{Text: "first"},
		a2a.TextPart{Text: "second"},
	)
	if err := NewExecutor(responder, nil, nil).Run(context.Background(), req, &recordingWriter{}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if responder.got[0] != "first" {
		t.Fatalf("responder got %q; want first text part", responder.got[0])
	}
}

func TestRun_QueueWriteErrorStops(t *testing.T) {
	t.Parallel()

	responder := &stubResponder{reply: "ok"}
	w := &recordingWriter{failAt: 2}
	err := NewExecutor(responder, nil, nil).Run(context.Background(),
		newRequest(nil, a2a.TextPart{Text: "x"}), w)
	if err == nil {
		t.Fatal("expected queue write error")
	}
	if len(responder.got) != 0 {
		t.Fatal("responder called after the working status could not be written")
	}
}

func TestCancel_AlwaysUnsupported(t *testing.T) {
	t.Parallel()

	states := []*a2a.Task{
		nil,
		{ID: "task-1", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}},
		{ID: "task-1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}},
		{ID: "task-1", Status: a2a.TaskStatus{State: a2a.TaskStateFailed}},
	}
	pub := &recordingPublisher{}
	e := NewExecutor(&stubResponder{}, pub, nil)
	for _, stored := range states {
		err := e.Cancel(context.Background(), newRequest(stored), nil)
		if !errors.Is(err, a2a.ErrUnsupportedOperation) {
			t.Fatalf("Cancel err = %v; want ErrUnsupportedOperation", err)
		}
	}
	if len(pub.records) != 0 {
		t.Fatalf("Cancel published %d events; want none", len(pub.records))
	}
}
