package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"MudaBot/entity"
	"MudaBot/internal/config"
	"MudaBot/internal/lib/sl"
)

const systemPrompt = `Você é um estimador de preços de mudanças residenciais e comerciais no Brasil.
Dado os dados da mudança, responda APENAS com um objeto JSON com os campos:
distance_km (number), price_min (number, em reais), price_max (number, em reais),
explanation (string curta em português explicando a faixa de preço),
origin_city (string), origin_state (sigla UF), destination_city (string), destination_state (sigla UF).
Normalize os nomes de cidade e estado a partir do texto livre do usuário.`

// Estimator computes a moving-price range with a single structured chat
// completion.
type Estimator struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewEstimator(conf *config.Config, log *slog.Logger) *Estimator {
	return &Estimator{
		client: openai.NewClient(conf.OpenAI.ApiKey),
		model:  conf.OpenAI.Model,
		log:    log.With(sl.Module("estimator")),
	}
}

type estimateResponse struct {
	DistanceKm       float64 `json:"distance_km"`
	PriceMin         float64 `json:"price_min"`
	PriceMax         float64 `json:"price_max"`
	Explanation      string  `json:"explanation"`
	OriginCity       string  `json:"origin_city"`
	OriginState      string  `json:"origin_state"`
	DestinationCity  string  `json:"destination_city"`
	DestinationState string  `json:"destination_state"`
}

// Estimate implements intake.Estimator.
func (e *Estimator) Estimate(ctx context.Context, facts entity.TripFacts) (*entity.Estimate, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildRequest(facts)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	content := resp.Choices[0].Message.Content

	var parsed estimateResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		e.log.With(
			slog.String("response", content),
			sl.Err(err),
		).Error("unmarshalling estimate")
		return nil, fmt.Errorf("parsing estimate response: %w", err)
	}

	if parsed.PriceMin <= 0 || parsed.PriceMax < parsed.PriceMin {
		return nil, fmt.Errorf("implausible price range: %.2f - %.2f", parsed.PriceMin, parsed.PriceMax)
	}

	return &entity.Estimate{
		DistanceKm:       parsed.DistanceKm,
		PriceMin:         parsed.PriceMin,
		PriceMax:         parsed.PriceMax,
		Explanation:      parsed.Explanation,
		OriginCity:       parsed.OriginCity,
		OriginState:      strings.ToUpper(parsed.OriginState),
		DestinationCity:  parsed.DestinationCity,
		DestinationState: strings.ToUpper(parsed.DestinationState),
	}, nil
}

func buildRequest(facts entity.TripFacts) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Origem: %s\n", facts.Origin))
	sb.WriteString(fmt.Sprintf("Destino: %s\n", facts.Destination))
	sb.WriteString(fmt.Sprintf("Tipo de imóvel: %s\n", facts.PropertyType))
	sb.WriteString(fmt.Sprintf("Tamanho: %s\n", facts.SizeEstimate))
	sb.WriteString(fmt.Sprintf("Elevador: %t\n", facts.HasElevator))
	sb.WriteString(fmt.Sprintf("Andar: %d\n", facts.Floor))
	sb.WriteString(fmt.Sprintf("Serviço de embalagem: %t\n", facts.NeedsPacking))
	if facts.MovingDate != "" {
		sb.WriteString(fmt.Sprintf("Data prevista: %s\n", facts.MovingDate))
	}
	if facts.ItemList != "" {
		sb.WriteString(fmt.Sprintf("Lista de itens: %s\n", facts.ItemList))
	}

	return sb.String()
}
