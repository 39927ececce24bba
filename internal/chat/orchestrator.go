package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/observability"
	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
	"github.com/ledgerchat/ledgerchat/internal/sqlguard"
)

type SchemaRetriever interface {
	Retrieve(ctx context.Context, question string) ([]schemaindex.SchemaDocument, error)
}

type SQLGenerator interface {
	Generate(ctx context.Context, question string, schemas []schemaindex.SchemaDocument) (string, error)
}

type QueryExecutor interface {
	Execute(ctx context.Context, stmt sqlguard.Statement) dbquery.Result
}

type ResponseSynthesizer interface {
	Synthesize(ctx context.Context, question string, result dbquery.Result) string
}

const generalSystemPrompt = "You are the assistant for a banking data service. " +
	"The user said something unrelated to the data. Reply briefly and politely, " +
	"and steer them toward questions about customers, accounts, transactions, " +
	"cards, or loans."

const generalFallback = "I'm designed to help with database queries about banking data."

// OrchestratorDeps wires the orchestrator's collaborators.
type OrchestratorDeps struct {
	Retriever   SchemaRetriever
	Generator   SQLGenerator
	Validator   *sqlguard.Validator
	Executor    QueryExecutor
	Synthesizer ResponseSynthesizer
	Client      llm.Client
	Sessions    SessionStore
	Logger      *slog.Logger
}

// Orchestrator routes each chat message down the database path (retrieve,
// generate, validate, execute, synthesize) or the general path (brief
// redirecting answer). A failure at any database step ends the turn with a
// failed reply; nothing is retried.
type Orchestrator struct {
	deps OrchestratorDeps
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	SessionID string      `json:"session_id"`
	Message   ChatMessage `json:"message"`
}

// Handle processes one user message. An empty session id starts a new
// session. The user message and the assistant reply are appended to the
// session as one atomic unit, in that order; an error here is the only way
// Handle fails.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("message is required")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userMessage := ChatMessage{Role: RoleUser, Content: message, CreatedAt: time.Now().UTC()}

	path := Classify(message)
	observability.IncrementChatRequest(string(path))

	var reply ChatMessage
	if path == PathDB {
		reply = o.answerFromDatabase(ctx, message)
	} else {
		reply = o.answerGeneral(ctx, message)
	}
	reply.Role = RoleAssistant
	reply.CreatedAt = time.Now().UTC()

	if err := o.deps.Sessions.Append(ctx, sessionID, userMessage, reply); err != nil {
		return Reply{}, fmt.Errorf("append session messages: %w", err)
	}
	return Reply{SessionID: sessionID, Message: reply}, nil
}

func (o *Orchestrator) answerFromDatabase(ctx context.Context, question string) ChatMessage {
	// Retrieval failure degrades to an empty schema context rather than
	// ending the turn.
	schemas, err := o.deps.Retriever.Retrieve(ctx, question)
	if err != nil {
		observability.IncrementRetrievalFailure()
		o.deps.Logger.WarnContext(ctx, "schema_retrieval_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		schemas = nil
	}

	sqlText, err := o.deps.Generator.Generate(ctx, question, schemas)
	if err != nil {
		o.deps.Logger.ErrorContext(ctx, "sql_generation_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		return ChatMessage{Content: "I couldn't generate a query for that question. Please try rephrasing it."}
	}

	statements, err := o.deps.Validator.Validate(sqlText)
	if err != nil {
		observability.IncrementValidationRejection()
		reason := err.Error()
		var rejection *sqlguard.RejectionError
		if errors.As(err, &rejection) {
			reason = rejection.Reason
		}
		o.deps.Logger.WarnContext(ctx, "sql_rejected",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("reason", reason),
		)
		return ChatMessage{
			Content:  "I can only run read-only queries against the banking data. Rejected: " + reason + ".",
			SQLQuery: sqlText,
		}
	}

	var result dbquery.Result
	for _, stmt := range statements {
		result = o.deps.Executor.Execute(ctx, stmt)
		if !result.Success {
			break
		}
	}

	answer := o.deps.Synthesizer.Synthesize(ctx, question, result)
	return ChatMessage{Content: answer, SQLQuery: result.Query, SQLResult: &result}
}

func (o *Orchestrator) answerGeneral(ctx context.Context, message string) ChatMessage {
	prompt := fmt.Sprintf("The user said:\n%s\n\nReply in one or two sentences.", message)
	answer, err := o.deps.Client.Complete(ctx, llm.Request{
		System:    generalSystemPrompt,
		Prompt:    prompt,
		MaxTokens: 200,
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		answer = generalFallback
	}
	return ChatMessage{Content: strings.TrimSpace(answer)}
}
