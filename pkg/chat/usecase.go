package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/intent"
	"github.com/thinkthread/thinkthread/pkg/llm"
	"github.com/thinkthread/thinkthread/pkg/settings"
)

const (
	maxContentRunes = 4000
	titleMaxRunes   = 80

	defaultTemperature = 0.7
)

var (
	// ErrRateLimited is returned when the upstream provider rejects the
	// request with 429. No assistant turn is persisted in that case;
	// resending the same content retries the completion.
	ErrRateLimited = errors.New("model provider rate limited")
	// ErrUpstream is returned when the provider call failed and no fallback
	// message is configured to stand in for an answer.
	ErrUpstream = errors.New("model provider unavailable")
)

// ErrValidation is returned for invalid conversation or message input.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

// Completer routes a chat request to a concrete model provider.
type Completer interface {
	Chat(ctx context.Context, provider string, req llm.ChatRequest) (llm.Reply, error)
}

// SettingsSource supplies the effective bot settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// IntentDetector tags user turns with a recognized intent and supplies the
// canned answer for intents that carry templated responses.
type IntentDetector interface {
	Detect(ctx context.Context, content string) (intent.Detection, bool, error)
}

// StartInput carries optional overrides for a new conversation.
type StartInput struct {
	Title        string
	Provider     string
	Model        string
	Channel      string
	Locale       string
	SystemPrompt string
}

// UpdateInput carries the mutable conversation fields. Nil means keep as is.
type UpdateInput struct {
	Title        *string
	Provider     *string
	Model        *string
	SystemPrompt *string
}

// SendInput is a user turn posted to a conversation.
type SendInput struct {
	Content string
	Model   string
}

// SendResult pairs the stored user turn with the assistant answer. Handoff is
// set once the conversation hit the configured consecutive fallback threshold.
type SendResult struct {
	UserMessage Message
	Reply       Message
	Handoff     bool
}

// UseCase drives conversations and the chat completion flow.
type UseCase interface {
	Start(ctx context.Context, ownerID uuid.UUID, in StartInput) (Conversation, []Message, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (Conversation, error)
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Conversation, error)
	ListAll(ctx context.Context, limit, offset int) ([]Conversation, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Conversation, error)
	Archive(ctx context.Context, ownerID, id uuid.UUID) (Conversation, error)
	Delete(ctx context.Context, actorID, id uuid.UUID, admin bool) error
	Messages(ctx context.Context, ownerID, id uuid.UUID, limit, offset int) ([]Message, error)
	Send(ctx context.Context, ownerID, id uuid.UUID, in SendInput) (SendResult, error)
}

type service struct {
	conversations ConversationRepository
	messages      MessageRepository
	completer     Completer
	settings      SettingsSource
	detector      IntentDetector
	feedback      FeedbackPurger
	auditor       audit.Recorder
}

// NewService wires the chat use case. detector, feedback and auditor may be
// nil.
func NewService(
	conversations ConversationRepository,
	messages MessageRepository,
	completer Completer,
	settingsSource SettingsSource,
	detector IntentDetector,
	feedback FeedbackPurger,
	auditor audit.Recorder,
) UseCase {
	return &service{
		conversations: conversations,
		messages:      messages,
		completer:     completer,
		settings:      settingsSource,
		detector:      detector,
		feedback:      feedback,
		auditor:       auditor,
	}
}

func (s *service) Start(ctx context.Context, ownerID uuid.UUID, in StartInput) (Conversation, []Message, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return Conversation{}, nil, fmt.Errorf("load settings: %w", err)
	}

	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if !validProvider(provider) {
		return Conversation{}, nil, ErrValidation("provider must be one of: auto, ollama, openrouter")
	}

	locale := strings.ToLower(strings.TrimSpace(in.Locale))
	if locale == "" {
		locale = "en"
	}
	if !cfg.LocaleAllowed(locale) {
		return Conversation{}, nil, ErrValidation("locale is not allowed")
	}

	channel := strings.TrimSpace(in.Channel)
	if channel == "" {
		channel = DefaultChannel
	}

	now := time.Now().UTC()
	conversation := Conversation{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        normalizeTitle(in.Title),
		Provider:     provider,
		Model:        strings.TrimSpace(in.Model),
		Channel:      channel,
		Locale:       locale,
		SystemPrompt: strings.TrimSpace(in.SystemPrompt),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var opening []Message
	if cfg.Greeting != "" {
		greeting := Message{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			Role:           llm.RoleAssistant,
			Content:        cfg.Greeting,
			Status:         StatusComplete,
			CreatedAt:      now,
		}
		opening = append(opening, greeting)
		conversation.MessageCount = 1
	}

	if err := s.conversations.Create(ctx, conversation); err != nil {
		return Conversation{}, nil, fmt.Errorf("create conversation: %w", err)
	}
	for _, message := range opening {
		if err := s.messages.Insert(ctx, message); err != nil {
			return Conversation{}, nil, fmt.Errorf("insert greeting: %w", err)
		}
	}

	return conversation, opening, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uuid.UUID) (Conversation, error) {
	return s.conversations.GetByIDForOwner(ctx, ownerID, id)
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Conversation, error) {
	return s.conversations.ListByOwner(ctx, ownerID, normalizeLimit(limit), max(offset, 0))
}

func (s *service) ListAll(ctx context.Context, limit, offset int) ([]Conversation, error) {
	return s.conversations.ListAll(ctx, normalizeLimit(limit), max(offset, 0))
}

func (s *service) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Conversation, error) {
	conversation, err := s.conversations.GetByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return Conversation{}, err
	}

	if in.Title != nil {
		title := normalizeTitle(*in.Title)
		if title == "" {
			return Conversation{}, ErrValidation("title must not be empty")
		}
		conversation.Title = title
	}
	if in.Provider != nil {
		provider := strings.TrimSpace(*in.Provider)
		if !validProvider(provider) {
			return Conversation{}, ErrValidation("provider must be one of: auto, ollama, openrouter")
		}
		conversation.Provider = provider
	}
	if in.Model != nil {
		conversation.Model = strings.TrimSpace(*in.Model)
	}
	if in.SystemPrompt != nil {
		conversation.SystemPrompt = strings.TrimSpace(*in.SystemPrompt)
	}

	conversation.UpdatedAt = time.Now().UTC()
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return Conversation{}, fmt.Errorf("update conversation: %w", err)
	}
	return conversation, nil
}

func (s *service) Archive(ctx context.Context, ownerID, id uuid.UUID) (Conversation, error) {
	conversation, err := s.conversations.GetByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return Conversation{}, err
	}
	if conversation.Archived() {
		return conversation, nil
	}

	now := time.Now().UTC()
	conversation.EndedAt = &now
	conversation.UpdatedAt = now
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return Conversation{}, fmt.Errorf("archive conversation: %w", err)
	}
	return conversation, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID, admin bool) error {
	var (
		conversation Conversation
		err          error
	)
	if admin {
		conversation, err = s.conversations.GetByID(ctx, id)
	} else {
		conversation, err = s.conversations.GetByIDForOwner(ctx, actorID, id)
	}
	if err != nil {
		return err
	}

	if err := s.messages.DeleteByConversation(ctx, conversation.ID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if s.feedback != nil {
		if err := s.feedback.DeleteByConversation(ctx, conversation.ID); err != nil {
			return fmt.Errorf("delete feedback: %w", err)
		}
	}
	if err := s.conversations.Delete(ctx, conversation.ID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	if s.auditor != nil {
		_ = s.auditor.Record(ctx, actorID, "conversation.delete", map[string]string{
			"conversationId": conversation.ID.String(),
		})
	}
	return nil
}

func (s *service) Messages(ctx context.Context, ownerID, id uuid.UUID, limit, offset int) ([]Message, error) {
	if _, err := s.conversations.GetByIDForOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, id, normalizeLimit(limit), max(offset, 0))
}

func (s *service) Send(ctx context.Context, ownerID, id uuid.UUID, in SendInput) (SendResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return SendResult{}, ErrValidation("message content is required")
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		return SendResult{}, ErrValidation("message content exceeds 4000 characters")
	}

	conversation, err := s.conversations.GetByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return SendResult{}, err
	}
	if conversation.Archived() {
		return SendResult{}, ErrArchived
	}

	started := time.Now()
	detection, matched := s.detect(ctx, content)

	userMessage := Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		Role:           llm.RoleUser,
		Content:        content,
		Status:         StatusComplete,
		CreatedAt:      time.Now().UTC(),
	}
	if matched {
		userMessage.Intent = detection.Key
	}
	if err := s.messages.Insert(ctx, userMessage); err != nil {
		return SendResult{}, fmt.Errorf("insert message: %w", err)
	}

	if matched && detection.Response != "" {
		return s.sendCanned(ctx, conversation, userMessage, detection, time.Since(started).Milliseconds())
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("load settings: %w", err)
	}

	// The user turn is already stored, so it sits in the tail. Fetch one
	// extra and drop it by id so the new turn does not eat a window slot.
	history, err := s.messages.Tail(ctx, conversation.ID, cfg.MaxContext+1)
	if err != nil {
		return SendResult{}, fmt.Errorf("load history: %w", err)
	}

	provider, model := resolveTarget(conversation, cfg, in.Model)
	request := llm.ChatRequest{
		Model:       model,
		Messages:    buildPrompt(systemPromptFor(conversation, cfg), history, userMessage),
		Temperature: defaultTemperature,
	}

	called := time.Now()
	reply, callErr := s.completer.Chat(ctx, provider, request)
	latency := time.Since(called).Milliseconds()

	if callErr != nil {
		return s.sendFallback(ctx, conversation, cfg, userMessage, latency, callErr)
	}

	assistant := Message{
		ID:               uuid.New(),
		ConversationID:   conversation.ID,
		Role:             llm.RoleAssistant,
		Content:          reply.Content,
		Provider:         reply.Provider,
		Model:            reply.Model,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
		LatencyMS:        latency,
		Status:           StatusComplete,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.messages.Insert(ctx, assistant); err != nil {
		return SendResult{}, fmt.Errorf("insert reply: %w", err)
	}

	conversation.Fallbacks = 0
	conversation.MessageCount += 2
	conversation.UpdatedAt = assistant.CreatedAt
	if conversation.Title == "" {
		conversation.Title = deriveTitle(content)
	}
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return SendResult{}, fmt.Errorf("update conversation: %w", err)
	}

	return SendResult{UserMessage: userMessage, Reply: assistant}, nil
}

// detect runs intent detection when a detector is configured. Failures are
// swallowed: an unreachable intent store must not block the chat flow.
func (s *service) detect(ctx context.Context, content string) (intent.Detection, bool) {
	if s.detector == nil {
		return intent.Detection{}, false
	}
	detection, ok, err := s.detector.Detect(ctx, content)
	if err != nil || !ok {
		return intent.Detection{}, false
	}
	return detection, true
}

// sendCanned answers from the matched intent's response template without
// calling a provider. Canned turns count as successful answers.
func (s *service) sendCanned(
	ctx context.Context,
	conversation Conversation,
	userMessage Message,
	detection intent.Detection,
	latency int64,
) (SendResult, error) {
	assistant := Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		Role:           llm.RoleAssistant,
		Content:        detection.Response,
		Intent:         detection.Key,
		LatencyMS:      latency,
		Status:         StatusComplete,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Insert(ctx, assistant); err != nil {
		return SendResult{}, fmt.Errorf("insert intent reply: %w", err)
	}

	conversation.Fallbacks = 0
	conversation.MessageCount += 2
	conversation.UpdatedAt = assistant.CreatedAt
	if conversation.Title == "" {
		conversation.Title = deriveTitle(userMessage.Content)
	}
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return SendResult{}, fmt.Errorf("update conversation: %w", err)
	}

	return SendResult{UserMessage: userMessage, Reply: assistant}, nil
}

// sendFallback persists the configured fallback answer in place of a provider
// reply. Rate limits and missing fallback text surface as errors instead.
func (s *service) sendFallback(
	ctx context.Context,
	conversation Conversation,
	cfg settings.Settings,
	userMessage Message,
	latency int64,
	callErr error,
) (SendResult, error) {
	if status, ok := llm.UpstreamStatus(callErr); ok && status == http.StatusTooManyRequests {
		return SendResult{}, fmt.Errorf("%w: %v", ErrRateLimited, callErr)
	}
	if cfg.FallbackMessage == "" {
		return SendResult{}, fmt.Errorf("%w: %v", ErrUpstream, callErr)
	}

	fallback := Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		Role:           llm.RoleAssistant,
		Content:        cfg.FallbackMessage,
		LatencyMS:      latency,
		Status:         StatusFallback,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Insert(ctx, fallback); err != nil {
		return SendResult{}, fmt.Errorf("insert fallback: %w", err)
	}

	conversation.Fallbacks++
	conversation.MessageCount += 2
	conversation.UpdatedAt = fallback.CreatedAt
	if conversation.Title == "" {
		conversation.Title = deriveTitle(userMessage.Content)
	}
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return SendResult{}, fmt.Errorf("update conversation: %w", err)
	}

	return SendResult{
		UserMessage: userMessage,
		Reply:       fallback,
		Handoff:     conversation.Fallbacks >= cfg.HandoffThreshold,
	}, nil
}

// resolveTarget picks the provider and model for a turn: request override
// first, then the conversation pin, then the bot defaults.
func resolveTarget(conversation Conversation, cfg settings.Settings, override string) (string, string) {
	provider := conversation.Provider
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if provider == "" {
		provider = llm.ProviderAuto
	}

	model := strings.TrimSpace(override)
	if model == "" {
		model = conversation.Model
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	return provider, model
}

// buildPrompt assembles the provider payload: system prompt, the prior
// context window without fallback turns, then the new user turn.
func buildPrompt(systemPrompt string, history []Message, userMessage Message) []llm.Message {
	prompt := make([]llm.Message, 0, len(history)+2)
	if systemPrompt != "" {
		prompt = append(prompt, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	for _, turn := range history {
		if turn.ID == userMessage.ID || turn.Status == StatusFallback || turn.Role == llm.RoleSystem {
			continue
		}
		prompt = append(prompt, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return append(prompt, llm.Message{Role: userMessage.Role, Content: userMessage.Content})
}

func systemPromptFor(conversation Conversation, cfg settings.Settings) string {
	if conversation.SystemPrompt != "" {
		return conversation.SystemPrompt
	}
	return cfg.SystemPrompt
}

func validProvider(provider string) bool {
	switch provider {
	case llm.ProviderAuto, llm.ProviderOllama, llm.ProviderOpenRouter:
		return true
	}
	return false
}

func normalizeTitle(title string) string {
	return deriveTitle(strings.TrimSpace(title))
}

// deriveTitle collapses whitespace and trims to the title length cap.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) <= titleMaxRunes {
		return title
	}
	return strings.TrimSpace(string(runes[:titleMaxRunes-3])) + "..."
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
