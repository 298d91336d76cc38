package repository

import "context"

// Settings keys for the remote inference provider.
const (
	SettingOpenAIAPIKey = "openai_api_key"
	SettingOpenAIModel  = "openai_model"
)

// SettingsRepository is a key/value lookup for runtime settings. Missing keys
// return an empty string and no error; callers decide whether absence is an
// error condition.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
