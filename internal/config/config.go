package config

import (
	"encoding/json"
	"os"

	"atg_autocomment/models"

	"go.uber.org/zap"
)

// Load читает список аккаунтов из JSON-файла.
// При ошибке чтения или разбора ошибка только логируется и возвращается пустой список,
// обязательные поля не проверяются: их отсутствие всплывёт при использовании.
func Load(path string, log *zap.Logger) models.Config {
	empty := models.Config{Accounts: []models.Account{}}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("ошибка загрузки конфигурации", zap.String("path", path), zap.Error(err))
		return empty
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Error("ошибка разбора конфигурации", zap.String("path", path), zap.Error(err))
		return empty
	}
	if cfg.Accounts == nil {
		cfg.Accounts = []models.Account{}
	}

	log.Info("конфигурация загружена", zap.String("path", path), zap.Int("accounts", len(cfg.Accounts)))
	return cfg
}
