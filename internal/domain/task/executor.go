// Package task runs greeting requests as A2A tasks and keeps a history of
// the events each task emitted.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
)

const (
	// DefaultText is answered when the inbound message has no text part or
	// the text is empty.
	DefaultText = "친구"
	// WorkingNotice is the status message while the tool call is in flight.
	WorkingNotice = "MCP 서버에 인사 요청 중..."
	// ArtifactName names the artifact carrying the greeting.
	ArtifactName = "greeting"
	// TopicEvent is the event bus topic every emitted event is published on.
	TopicEvent = "task.event"
)

// Responder produces the reply text for a user message.
type Responder interface {
	Respond(ctx context.Context, userText string) (string, error)
}

// Publisher receives a copy of every event written to the queue.
type Publisher interface {
	Publish(topic string, payload any)
}

// EventWriter is the part of eventqueue.Queue the executor writes to.
type EventWriter interface {
	Write(ctx context.Context, event a2a.Event) error
}

// Executor implements a2asrv.AgentExecutor.
type Executor struct {
	responder Responder
	publisher Publisher
	logger    *slog.Logger
}

var _ a2asrv.AgentExecutor = (*Executor)(nil)

// NewExecutor returns an Executor. publisher may be nil; a nil logger means
// slog.Default.
func NewExecutor(responder Responder, publisher Publisher, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{responder: responder, publisher: publisher, logger: logger}
}

// Execute runs one request to completion on q.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue) error {
	return e.Run(ctx, reqCtx, q)
}

// Run drives submitted -> working -> completed|failed, writing each
// transition to w. A failing responder ends the task in failed and is not
// returned as an error; only queue write errors are.
func (e *Executor) Run(ctx context.Context, reqCtx *a2asrv.RequestContext, w EventWriter) error {
	text, ok := firstText(reqCtx.Message)
	if !ok || text == "" {
		text = DefaultText
	}

	if reqCtx.StoredTask == nil {
		if err := e.emit(ctx, w, a2a.NewSubmittedTask(reqCtx, reqCtx.Message)); err != nil {
			return err
		}
	}

	working := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateWorking, agentMessage(reqCtx, WorkingNotice))
	if err := e.emit(ctx, w, working); err != nil {
		return err
	}

	reply, err := e.responder.Respond(ctx, text)
	if err != nil {
		e.logger.Warn("task failed", "task_id", reqCtx.TaskID, "kind", toolclient.KindOf(err), "error", err)
		failed := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, agentMessage(reqCtx, FailureMessage(err)))
		failed.Final = true
		return e.emit(ctx, w, failed)
	}

	artifact := a2a.NewArtifactEvent(reqCtx, a2a.TextPart{Text: reply})
	artifact.Artifact.Name = ArtifactName
	if err := e.emit(ctx, w, artifact); err != nil {
		return err
	}

	completed := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCompleted, nil)
	completed.Final = true
	return e.emit(ctx, w, completed)
}

// Cancel is not supported; it never writes to q.
func (e *Executor) Cancel(_ context.Context, reqCtx *a2asrv.RequestContext, _ eventqueue.Queue) error {
	return fmt.Errorf("cancel task %s: %w", reqCtx.TaskID, a2a.ErrUnsupportedOperation)
}

func (e *Executor) emit(ctx context.Context, w EventWriter, event a2a.Event) error {
	if err := w.Write(ctx, event); err != nil {
		return fmt.Errorf("write task event: %w", err)
	}
	if e.publisher != nil {
		e.publisher.Publish(TopicEvent, RecordOf(event))
	}
	return nil
}

// FailureMessage is the status text of a failed task.
func FailureMessage(err error) string {
	var te *toolclient.Error
	if !errors.As(err, &te) {
		return "오류 발생: " + err.Error()
	}
	switch te.Kind {
	case toolclient.KindTransport:
		return "오류 발생: MCP 서버에 연결할 수 없습니다: " + te.Err.Error()
	case toolclient.KindSession:
		return "오류 발생: MCP 세션을 시작할 수 없습니다: " + te.Err.Error()
	case toolclient.KindInvocation:
		if te.Tool != "" {
			return fmt.Sprintf("오류 발생: 도구 %s 호출 실패: %v", te.Tool, te.Err)
		}
		return "오류 발생: 도구 호출 실패: " + te.Err.Error()
	default:
		return "오류 발생: " + err.Error()
	}
}

func agentMessage(reqCtx *a2asrv.RequestContext, text string) *a2a.Message {
	return a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, a2a.TextPart{Text: text})
}

// firstText returns the text of the first text part of msg.
func firstText(msg *a2a.Message) (string, bool) {
	if msg == nil {
		return "", false
	}
	for _, p := range msg.Parts {
		if tp, ok := p.(a2a.TextPart); ok {
			return tp.Text, true
		}
	}
	return "", false
}
