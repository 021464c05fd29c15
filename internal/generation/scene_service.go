package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"go.uber.org/zap"
)

// sceneRequest is the user message sent to the narrator model.
type sceneRequest struct {
	SituationContext string `json:"situation_context"`
	PlayerAction     string `json:"player_action"`
	Morale           int    `json:"morale"`
	Power            int    `json:"power"`
}

// sceneResponse is the JSON object the narrator must answer with.
type sceneResponse struct {
	Description      string `json:"description"`
	AgentPrompt      string `json:"agent_prompt"`
	SituationContext string `json:"situation_context"`
}

// SceneService generates scene text through a TextClient.
type SceneService struct {
	client       TextClient
	systemPrompt string
	logger       *zap.Logger
}

var _ interfaces.SceneGenerator = (*SceneService)(nil)

// NewSceneService creates the scene generator.
func NewSceneService(client TextClient, systemPrompt string, logger *zap.Logger) *SceneService {
	return &SceneService{
		client:       client,
		systemPrompt: systemPrompt,
		logger:       logger.Named("SceneService"),
	}
}

func (s *SceneService) IsConfigured() bool {
	return s.client.Configured()
}

func (s *SceneService) GenerateNextScene(ctx context.Context, priorContext, action string, morale, power float64) (*models.GameScene, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("%w: AI API key is missing", models.ErrConfiguration)
	}

	input, err := json.Marshal(sceneRequest{
		SituationContext: priorContext,
		PlayerAction:     action,
		Morale:           int(math.Round(morale)),
		Power:            int(math.Round(power)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", models.ErrGeneration, err)
	}

	raw, _, err := s.client.GenerateJSON(ctx, s.systemPrompt, string(input))
	if err != nil {
		return nil, err
	}

	scene, err := parseScene(raw)
	if err != nil {
		s.logger.Warn("Narrator returned an unusable scene", zap.Error(err), zap.Int("responseBytes", len(raw)))
		return nil, err
	}
	return scene, nil
}

// parseScene decodes the narrator answer. Code fences around the JSON are tolerated.
func parseScene(raw string) (*models.GameScene, error) {
	var resp sceneResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid scene JSON: %v", models.ErrGeneration, err)
	}

	resp.Description = strings.TrimSpace(resp.Description)
	resp.AgentPrompt = strings.TrimSpace(resp.AgentPrompt)
	if resp.Description == "" {
		return nil, fmt.Errorf("%w: scene has no description", models.ErrGeneration)
	}
	if resp.AgentPrompt == "" {
		return nil, fmt.Errorf("%w: scene has no agent line", models.ErrGeneration)
	}

	return &models.GameScene{
		Description:      resp.Description,
		AgentPrompt:      resp.AgentPrompt,
		SituationContext: resp.SituationContext,
	}, nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		return strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
