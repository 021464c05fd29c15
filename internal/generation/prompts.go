package generation

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScenePromptName имя системного промпта рассказчика.
const ScenePromptName = "scene_narrator.md"

//go:embed prompts/*.md
var embeddedPrompts embed.FS

// LoadPrompt читает промпт из dir, если dir задан, иначе встроенный.
func LoadPrompt(dir, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if dir != "" {
		data, err = os.ReadFile(filepath.Join(dir, name))
	} else {
		data, err = embeddedPrompts.ReadFile("prompts/" + name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt %s is empty", name)
	}
	return prompt, nil
}
