// Package assistant runs the AI features end to end: it builds the context
// window, composes the prompt, calls the generation backend, validates the
// answer and persists what must be persisted.
package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/chatctx"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/generation"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/metrics"
	"github.com/edgard/threadwise/internal/parse"
	"github.com/edgard/threadwise/internal/prompt"
	"github.com/edgard/threadwise/internal/scope"
)

// Store is the persistence the assistant needs. database.Store satisfies it.
type Store interface {
	chatctx.MessageReader
	GetMember(ctx context.Context, workspaceID, userID string) (*database.Member, error)
	EnsureMember(ctx context.Context, workspaceID, userID, name string) (*database.Member, error)
	SaveMessage(ctx context.Context, message *database.Message) error
	SaveSummary(ctx context.Context, in database.SummaryUpsert) (int64, error)
	GetSummary(ctx context.Context, workspaceID string, scopeType scope.Type, scopeID string) (*database.Summary, error)
}

// Service implements the assistant features.
type Service struct {
	store    Store
	builder  *chatctx.Builder
	gen      generation.Client
	cfg      config.AssistantConfig
	policies map[Feature]Policy
	log      *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPolicies replaces the failure policy table.
func WithPolicies(p map[Feature]Policy) Option {
	return func(s *Service) { s.policies = p }
}

// New creates a Service. gen is injected so a test double can stand in for
// the real backend.
func New(store Store, gen generation.Client, cfg config.AssistantConfig, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		store:    store,
		builder:  chatctx.NewBuilder(store, log),
		gen:      gen,
		cfg:      cfg,
		policies: DefaultPolicies,
		log:      log.With("component", "assistant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SuggestRequest asks for reply suggestions to a message.
type SuggestRequest struct {
	WorkspaceID string
	// Scope may be zero, in which case it is derived from the target message.
	Scope           scope.Scope
	TargetMessageID int64
	RequesterUserID string
}

// RespondRequest asks the assistant to post a reply to a message.
type RespondRequest struct {
	WorkspaceID     string
	Scope           scope.Scope
	TargetMessageID int64
	RequesterUserID string
}

// SummaryRequest asks for the summary of a scope.
type SummaryRequest struct {
	WorkspaceID     string
	Scope           scope.Scope
	RequesterUserID string
}

// SummaryResult is what a summary request returns.
type SummaryResult struct {
	Text             string `json:"summary"`
	ScopeType        string `json:"scope_type"`
	ScopeID          string `json:"scope_id"`
	MessageCount     int    `json:"message_count"`
	ParticipantCount int    `json:"participant_count"`
	// ArtifactID is zero when nothing was persisted.
	ArtifactID int64 `json:"artifact_id,omitempty"`
	Persisted  bool  `json:"persisted"`
	// Fallback is set when Text was not produced by the model.
	Fallback bool `json:"fallback"`
}

// SuggestReplies returns three reply suggestions for the target message.
// Backend and validation failures yield parse.FallbackSuggestions.
func (s *Service) SuggestReplies(ctx context.Context, req SuggestRequest) ([]string, error) {
	if err := s.authorize(ctx, req.WorkspaceID, req.RequesterUserID); err != nil {
		return nil, err
	}
	target, sc, err := s.loadTarget(ctx, req.WorkspaceID, req.Scope, req.TargetMessageID)
	if err != nil {
		return nil, err
	}

	window, err := s.builder.BuildBefore(ctx, req.WorkspaceID, sc, target.ID, s.cfg.LiveContextLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build context for suggestions: %w", err)
	}

	p := prompt.Compose(prompt.KindSuggestions, window, prompt.TargetFromEntry(s.builder.Entry(ctx, target)), prompt.Options{})
	raw, err := s.generate(ctx, FeatureSuggestions, p)
	if err != nil {
		if s.absorb(ctx, FeatureSuggestions, err) {
			return parse.DefaultSuggestions(), nil
		}
		return nil, err
	}

	suggestions, ok := parse.Suggestions(raw)
	if !ok {
		s.log.WarnContext(ctx, "Model suggestions did not validate", "feature", FeatureSuggestions, "raw", logger.Truncate(raw, 200))
		if !s.policy(FeatureSuggestions).AbsorbMalformedOutput {
			return nil, fmt.Errorf("%w: suggestions are not a 3-string JSON array", apperr.ErrMalformedOutput)
		}
		metrics.Fallbacks.WithLabelValues(string(FeatureSuggestions), "malformed").Inc()
	}
	return suggestions, nil
}

// AutoRespond generates a reply to the target message and stores it as a new
// message authored by the assistant, in the target's channel or conversation
// and, for threads, in the same thread.
func (s *Service) AutoRespond(ctx context.Context, req RespondRequest) (*database.Message, error) {
	if err := s.authorize(ctx, req.WorkspaceID, req.RequesterUserID); err != nil {
		return nil, err
	}
	target, sc, err := s.loadTarget(ctx, req.WorkspaceID, req.Scope, req.TargetMessageID)
	if err != nil {
		return nil, err
	}

	window, err := s.builder.BuildBefore(ctx, req.WorkspaceID, sc, target.ID, s.cfg.LiveContextLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build context for auto-response: %w", err)
	}

	p := prompt.Compose(prompt.KindAutoResponse, window, prompt.TargetFromEntry(s.builder.Entry(ctx, target)),
		prompt.Options{AssistantName: s.cfg.Name})
	raw, err := s.generate(ctx, FeatureAutoResponse, p)
	if err != nil {
		s.absorb(ctx, FeatureAutoResponse, err)
		return nil, err
	}

	body, err := parse.AutoResponse(raw)
	if err != nil {
		s.log.ErrorContext(ctx, "Auto-response is empty", "feature", FeatureAutoResponse, "error", err)
		return nil, err
	}

	member, err := s.store.EnsureMember(ctx, req.WorkspaceID, s.cfg.UserID, s.cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assistant member: %w", err)
	}

	reply := &database.Message{
		WorkspaceID:    req.WorkspaceID,
		ChannelID:      target.ChannelID,
		ConversationID: target.ConversationID,
		MemberID:       member.ID,
		Body:           body,
	}
	switch {
	case sc.Type() == scope.TypeThread:
		reply.ParentMessageID = sql.NullInt64{Int64: sc.ThreadID(), Valid: true}
	case target.ParentMessageID.Valid:
		reply.ParentMessageID = target.ParentMessageID
	}

	if err := s.store.SaveMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to store auto-response: %w", err)
	}

	s.log.InfoContext(ctx, "Auto-response stored", "feature", FeatureAutoResponse, "message_id", reply.ID, "target_id", target.ID)
	return reply, nil
}

// AnalyzeTone classifies a draft. A nil result means no tone is available,
// which covers an empty draft, backend failures and unparsable answers.
func (s *Service) AnalyzeTone(ctx context.Context, draft string) (*parse.Tone, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, nil
	}

	p := prompt.Compose(prompt.KindTone, nil, &prompt.Target{Text: draft}, prompt.Options{})
	raw, err := s.generate(ctx, FeatureTone, p)
	if err != nil {
		if s.absorb(ctx, FeatureTone, err) {
			return nil, nil
		}
		return nil, err
	}

	tone := parse.ParseTone(raw, s.cfg.StrictTone)
	if tone == nil {
		s.log.WarnContext(ctx, "Model tone did not validate", "feature", FeatureTone, "strict", s.cfg.StrictTone, "raw", logger.Truncate(raw, 200))
		if !s.policy(FeatureTone).AbsorbMalformedOutput {
			return nil, fmt.Errorf("%w: tone answer is not a {tone, impact} object", apperr.ErrMalformedOutput)
		}
		metrics.Fallbacks.WithLabelValues(string(FeatureTone), "malformed").Inc()
	}
	return tone, nil
}

// Summarize generates and stores the summary of a scope. When generation
// fails the result is the deterministic fallback summary, which is not
// stored. A non-member requester gets apperr.ErrUnauthorized.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (*SummaryResult, error) {
	if req.Scope.IsZero() {
		return nil, fmt.Errorf("%w: a thread, channel or conversation is required", apperr.ErrValidation)
	}
	if err := s.authorize(ctx, req.WorkspaceID, req.RequesterUserID); err != nil {
		return nil, err
	}

	result := &SummaryResult{
		ScopeType: string(req.Scope.Type()),
		ScopeID:   req.Scope.ID(),
	}

	window, err := s.builder.Build(ctx, req.WorkspaceID, req.Scope, s.cfg.SummaryContextLimit)
	if err != nil {
		if apperr.IsCanceled(err) {
			return nil, err
		}
		s.log.ErrorContext(ctx, "Failed to aggregate messages for summary", "feature", FeatureSummary, "scope", req.Scope.String(), "error", err)
		result.Text = parse.SummaryErrorText
		result.Fallback = true
		return result, nil
	}

	if len(window) == 0 {
		result.Text = parse.EmptySummary(req.Scope.Type())
		return result, nil
	}
	result.MessageCount = len(window)
	result.ParticipantCount = len(window.Participants())

	raw, err := s.generate(ctx, FeatureSummary, prompt.ComposeSummary(window, req.Scope.Type()))
	if err == nil && parse.Summary(raw) == "" {
		err = fmt.Errorf("%w: empty summary", apperr.ErrBackendError)
	}
	if err != nil {
		if !s.degrade(ctx, FeatureSummary, err) {
			return nil, err
		}
		result.Text = parse.FallbackSummary(window)
		result.Fallback = true
		return result, nil
	}
	result.Text = parse.Summary(raw)

	id, err := s.store.SaveSummary(ctx, database.SummaryUpsert{
		WorkspaceID:      req.WorkspaceID,
		ScopeType:        req.Scope.Type(),
		ScopeID:          req.Scope.ID(),
		Summary:          result.Text,
		MessageCount:     result.MessageCount,
		ParticipantCount: result.ParticipantCount,
		RequesterUserID:  req.RequesterUserID,
	})
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return nil, err
	case err != nil:
		s.log.ErrorContext(ctx, "Failed to store summary", "feature", FeatureSummary, "scope", req.Scope.String(), "error", err)
	default:
		result.ArtifactID = id
		result.Persisted = true
		metrics.SummariesSaved.Inc()
	}
	return result, nil
}

// GetSummary returns the stored summary of a scope for a workspace member.
func (s *Service) GetSummary(ctx context.Context, workspaceID, requesterUserID string, sc scope.Scope) (*database.Summary, error) {
	if sc.IsZero() {
		return nil, fmt.Errorf("%w: a thread, channel or conversation is required", apperr.ErrValidation)
	}
	if err := s.authorize(ctx, workspaceID, requesterUserID); err != nil {
		return nil, err
	}
	summary, err := s.store.GetSummary(ctx, workspaceID, sc.Type(), sc.ID())
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: no summary for %s", apperr.ErrNotFound, sc)
	}
	return summary, nil
}

// ScopeOf returns the narrowest scope a stored message belongs to.
func ScopeOf(m *database.Message) scope.Scope {
	var threadID int64
	if m.ParentMessageID.Valid {
		threadID = m.ParentMessageID.Int64
	}
	return scope.Resolve(threadID, m.ChannelID.String, m.ConversationID.String)
}

func (s *Service) authorize(ctx context.Context, workspaceID, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: no authenticated user", apperr.ErrUnauthorized)
	}
	member, err := s.store.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil {
		s.log.WarnContext(ctx, "Rejected request from non-member", "workspace_id", workspaceID, "user_id", userID)
		return fmt.Errorf("%w: user %s is not a member of workspace %s", apperr.ErrUnauthorized, userID, workspaceID)
	}
	return nil
}

func (s *Service) loadTarget(ctx context.Context, workspaceID string, sc scope.Scope, messageID int64) (*database.Message, scope.Scope, error) {
	if messageID <= 0 {
		return nil, sc, fmt.Errorf("%w: target message id is required", apperr.ErrValidation)
	}
	target, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, sc, fmt.Errorf("failed to load target message: %w", err)
	}
	if target == nil || target.WorkspaceID != workspaceID {
		return nil, sc, fmt.Errorf("%w: message %d", apperr.ErrNotFound, messageID)
	}
	if sc.IsZero() {
		return target, ScopeOf(target), nil
	}
	if err := s.checkContains(ctx, sc, target); err != nil {
		return nil, sc, err
	}
	return target, sc, nil
}

// checkContains returns apperr.ErrValidation unless sc holds target. A thread
// root must share the target's workspace and channel or conversation.
func (s *Service) checkContains(ctx context.Context, sc scope.Scope, target *database.Message) error {
	switch sc.Type() {
	case scope.TypeChannel:
		if target.ChannelID.Valid && target.ChannelID.String == sc.ChannelID() {
			return nil
		}
	case scope.TypeConversation:
		if target.ConversationID.Valid && target.ConversationID.String == sc.ConversationID() {
			return nil
		}
	case scope.TypeThread:
		if target.ID == sc.ThreadID() {
			return nil
		}
		if !target.ParentMessageID.Valid || target.ParentMessageID.Int64 != sc.ThreadID() {
			break
		}
		// The reply names the root; the root must also live where the reply does.
		root, err := s.store.GetMessageByID(ctx, sc.ThreadID())
		if err != nil {
			return fmt.Errorf("failed to load thread root: %w", err)
		}
		if root != nil && root.WorkspaceID == target.WorkspaceID &&
			root.ChannelID == target.ChannelID && root.ConversationID == target.ConversationID {
			return nil
		}
	}
	s.log.WarnContext(ctx, "Rejected scope that does not contain the target", "scope", sc.String(), "target_id", target.ID)
	return fmt.Errorf("%w: message %d is not in %s", apperr.ErrValidation, target.ID, sc)
}

// generate calls the backend and records latency and outcome.
func (s *Service) generate(ctx context.Context, feature Feature, p string) (string, error) {
	backend := s.gen.Name()
	start := time.Now()
	raw, err := s.gen.Generate(ctx, p)
	metrics.GenerationDuration.WithLabelValues(backend, string(feature)).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GenerationRequests.WithLabelValues(backend, string(feature), outcome).Inc()
	return raw, err
}

// absorb logs a generation failure and reports whether the feature's policy
// masks it with a default.
func (s *Service) absorb(ctx context.Context, feature Feature, err error) bool {
	s.log.ErrorContext(ctx, "Generation failed", "feature", feature, "backend", s.gen.Name(), "error", err)
	if !apperr.IsBackendFailure(err) || apperr.IsCanceled(err) {
		return false
	}
	if !s.policy(feature).AbsorbBackendFailure {
		return false
	}
	metrics.Fallbacks.WithLabelValues(string(feature), "backend").Inc()
	return true
}

// degrade is absorb for features that fall back to a skeleton artifact.
func (s *Service) degrade(ctx context.Context, feature Feature, err error) bool {
	s.log.ErrorContext(ctx, "Generation failed", "feature", feature, "backend", s.gen.Name(), "error", err)
	if !apperr.IsBackendFailure(err) || apperr.IsCanceled(err) {
		return false
	}
	if !s.policy(feature).DegradeToSkeleton {
		return false
	}
	metrics.Fallbacks.WithLabelValues(string(feature), "backend").Inc()
	return true
}
