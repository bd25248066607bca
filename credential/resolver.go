package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aicanalytics/gptmenu/utils"
)

// Resolver produces the key for one provider family.
type Resolver struct {
	// Provider is the credential family, e.g. "openai".
	Provider string
	// EnvKey names the variable the user could have set instead.
	EnvKey string
	// Initial is the key already found in the configuration, if any.
	Initial  string
	Required bool
	Store    Store
	Prompter Prompter
	Logger   utils.Logger
	// MaxAttempts bounds empty answers; zero means ask until a key is given.
	MaxAttempts int
}

func (r *Resolver) logger() utils.Logger {
	if r.Logger == nil {
		return utils.NewNopLogger()
	}
	return r.Logger
}

// Resolve returns the configured key, else the stored key, else prompts.
// Providers that need no key resolve to "".
func (r *Resolver) Resolve() (string, error) {
	if !r.Required {
		return "", nil
	}
	if key := strings.TrimSpace(r.Initial); key != "" {
		return key, nil
	}
	if r.Store != nil {
		key, err := r.Store.Get(r.Provider)
		switch {
		case err == nil && key != "":
			r.logger().Debug("Using stored credential", "provider", r.Provider)
			return key, nil
		case err != nil && !errors.Is(err, ErrNoCredential):
			r.logger().Warn("Credential store unavailable", "provider", r.Provider, "error", err)
		}
	}
	return r.prompt(fmt.Sprintf("%s is not set. Enter your %s API key: ", r.EnvKey, r.Provider))
}

// Reprompt forgets the stored key and asks for a new one. It is called
// after the vendor rejected the current key.
func (r *Resolver) Reprompt() (string, error) {
	if r.Store != nil {
		if err := r.Store.Delete(r.Provider); err != nil {
			r.logger().Warn("Failed to forget rejected credential", "provider", r.Provider, "error", err)
		}
	}
	return r.prompt(fmt.Sprintf("The %s API key was rejected. Enter a new key: ", r.Provider))
}

func (r *Resolver) prompt(message string) (string, error) {
	if r.Prompter == nil {
		return "", fmt.Errorf("%w for %s: set %s", ErrNoCredential, r.Provider, r.EnvKey)
	}
	for attempt := 1; ; attempt++ {
		key, err := r.Prompter.PromptSecret(message)
		if err != nil {
			return "", fmt.Errorf("%w for %s: %v", ErrNoCredential, r.Provider, err)
		}
		if key = strings.TrimSpace(key); key != "" {
			r.save(key)
			return key, nil
		}
		if r.MaxAttempts > 0 && attempt >= r.MaxAttempts {
			return "", fmt.Errorf("%w for %s: no key entered", ErrNoCredential, r.Provider)
		}
		message = "The API key cannot be empty. Enter your " + r.Provider + " API key: "
	}
}

func (r *Resolver) save(key string) {
	if r.Store == nil {
		return
	}
	if err := r.Store.Set(r.Provider, key); err != nil {
		r.logger().Warn("Failed to store credential", "provider", r.Provider, "error", err)
	}
}
