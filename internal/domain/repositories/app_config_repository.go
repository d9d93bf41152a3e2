package repositories

import "agreements/internal/domain/entities"

// AppConfigRepository loads and saves the application configuration
type AppConfigRepository interface {
	Load(configPath string) (*entities.Config, error)
	Save(configPath string, config *entities.Config) error
}
