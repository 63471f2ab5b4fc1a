// Package domain defines the diagnosis contracts
package domain

import (
	"context"

	"arguxai/internal/adapters/ai/deepseek"
	issuesdom "arguxai/internal/services/issues/domain"
)

// DiagnoserPort explains an issue and attaches the result to it
type DiagnoserPort interface {
	Diagnose(ctx context.Context, issueID string) (issuesdom.Issue, error)
}

// ModelPort is the AI backend; *deepseek.Client satisfies it
type ModelPort interface {
	Diagnose(ctx context.Context, r deepseek.Request) (deepseek.Result, error)
}

// IssuesPort is the slice of the issues module diagnosis needs
type IssuesPort interface {
	issuesdom.ReaderPort
	AttachDiagnosis(ctx context.Context, id string, d issuesdom.Diagnosis) (issuesdom.Issue, error)
}
