package engine

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
)

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

type OpenAIResponder struct {
	client openai.Client
	config OpenAIConfig
}

func NewOpenAIResponder(config OpenAIConfig) *OpenAIResponder {
	var client openai.Client
	if config.BaseURL != "" {
		client = openai.NewClient(
			option.WithAPIKey(config.APIKey),
			option.WithBaseURL(config.BaseURL),
		)
	} else {
		client = openai.NewClient(
			option.WithAPIKey(config.APIKey),
		)
	}
	return &OpenAIResponder{client: client, config: config}
}

func (r *OpenAIResponder) Reply(ctx context.Context, history []*chatsession.Message) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if r.config.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(r.config.SystemPrompt))
	}
	for _, m := range history {
		switch m.Sender() {
		case chatsession.SenderClient:
			messages = append(messages, openai.UserMessage(m.Body()))
		case chatsession.SenderBot, chatsession.SenderManager:
			messages = append(messages, openai.AssistantMessage(m.Body()))
		case chatsession.SenderSystem:
			// Platform notices carry no conversational signal.
		}
	}

	response, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    r.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to get engine response")
	}
	if len(response.Choices) == 0 {
		return "", ErrNoReply
	}

	reply := strings.TrimSpace(response.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrNoReply
	}
	return reply, nil
}
