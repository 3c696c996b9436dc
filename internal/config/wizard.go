package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Selamat datang di capilbot! Mari konfigurasi layanan Anda.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Pilih LLM provider",
		Items: []string{"google", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider
	cfg.Model, cfg.EmbeddingModel = DefaultModelsFor(cfg.Provider)

	// 2. Content API base URL.
	urlPrompt := promptui.Prompt{
		Label:   "Base URL content API (Laravel)",
		Default: cfg.ContentAPI.BaseURL,
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base URL prompt: %w", err)
	}
	cfg.ContentAPI.BaseURL = baseURL

	// 3. Content API token.
	tokenPrompt := promptui.Prompt{
		Label: "Bearer token content API (kosongkan untuk pakai env)",
		Mask:  '*',
	}
	token, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("token prompt: %w", err)
	}
	cfg.ContentAPI.Token = token

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Port HTTP server",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port harus angka 1-65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nKonfigurasi tersimpan di %s\n", path)
	return cfg, nil
}
