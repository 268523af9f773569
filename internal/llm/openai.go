package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/pkg/logging"
)

type openAIProvider struct {
	client openai.Client
	model  string
	logger *logging.Logger
}

func NewOpenAIProvider(client openai.Client, model string) Provider {
	return &openAIProvider{
		client: client,
		model:  model,
		logger: logging.NewLogger("OpenAIProvider"),
	}
}

func (p *openAIProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		case domain.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		default:
			return "", fmt.Errorf("%w: unknown completion role %q", domain.ErrInvalidArgument, msg.Role)
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrUpstreamFailure, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domain.ErrUpstreamFailure)
	}
	p.logger.Debug("completion finished", "promptTokens", resp.Usage.PromptTokens, "completionTokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}
