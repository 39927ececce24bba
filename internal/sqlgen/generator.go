package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
)

const generatorSystemPrompt = "You convert natural language questions about a banking database " +
	"into a single SQL query. The database speaks PostgreSQL syntax. " +
	"Return ONLY SQL. No markdown, no explanation."

// Generator turns a question plus retrieved schema context into candidate
// SQL. The output is untrusted model text: callers must run it through the
// safety validator before execution.
type Generator struct {
	client    llm.Client
	maxTokens int
}

func NewGenerator(client llm.Client, maxTokens int) *Generator {
	return &Generator{client: client, maxTokens: maxTokens}
}

func (g *Generator) Generate(ctx context.Context, question string, schemas []schemaindex.SchemaDocument) (string, error) {
	prompt := buildGeneratorPrompt(question, schemas)
	completion, err := g.client.Complete(ctx, llm.Request{
		System:    generatorSystemPrompt,
		Prompt:    prompt,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	sql := stripMarkdownSQL(completion)
	if sql == "" {
		return "", fmt.Errorf("model returned empty SQL")
	}
	return sql, nil
}

func buildGeneratorPrompt(question string, schemas []schemaindex.SchemaDocument) string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	if len(schemas) == 0 {
		b.WriteString("(no schema context available)\n")
	}
	for _, schema := range schemas {
		if schema.Description != "" {
			fmt.Fprintf(&b, "-- %s: %s\n", schema.TableName, schema.Description)
		}
		b.WriteString(strings.TrimSpace(schema.DDLStatement))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Question:\n%s\n\n", strings.TrimSpace(question))
	b.WriteString("Rules:\n" +
		"- Generate exactly one SELECT query.\n" +
		"- Use only the tables and columns shown above, with their exact names.\n" +
		"- Join tables where the answer spans more than one.\n" +
		"- Always include an explicit LIMIT clause.\n" +
		"- Output the SQL query only.")
	return b.String()
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
