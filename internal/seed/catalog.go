package seed

import (
	_ "embed"
	"fmt"

	"projectarium/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed bot_projects.yaml
var botProjectsYAML []byte

// BotProjects returns the bot's showcase projects from the embedded catalog.
func BotProjects() ([]service.BotProject, error) {
	return parseBotProjects(botProjectsYAML)
}

func parseBotProjects(raw []byte) ([]service.BotProject, error) {
	var projects []service.BotProject
	if err := yaml.Unmarshal(raw, &projects); err != nil {
		return nil, fmt.Errorf("parse bot project catalog: %w", err)
	}
	for i, p := range projects {
		if p.Name == "" {
			return nil, fmt.Errorf("bot project %d has no name", i)
		}
	}
	return projects, nil
}
