package corpus

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// FileProvider loads a corpus from a YAML file declaring intents, entity
// types, and conversation flows.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Load reads and parses the corpus file.
func (p *FileProvider) Load(_ context.Context) (*model.Corpus, error) {
	if p.path == "" {
		return nil, fmt.Errorf("%w: no corpus path configured", errx.ErrCorpusLoad)
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errx.ErrCorpusLoad, p.path, err)
	}

	var c model.Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", errx.ErrCorpusLoad, p.path, err)
	}
	if len(c.Intents) == 0 {
		return nil, fmt.Errorf("%w: %s declares no intents", errx.ErrCorpusLoad, p.path)
	}

	return Normalize(&c), nil
}

var _ model.CorpusProvider = (*FileProvider)(nil)

// LoadOrDefault loads through the provider and falls back to the built-in
// default set on failure. The failure is surfaced only as a warning event;
// corpus trouble never stops startup.
func LoadOrDefault(ctx context.Context, provider model.CorpusProvider, notifier model.Notifier) *model.Corpus {
	if provider != nil {
		c, err := provider.Load(ctx)
		if err == nil {
			return c
		}
		logx.Warn().Err(err).Msg("corpus load failed, using built-in default intents")
		if notifier != nil {
			notifier.Notify(ctx, model.Event{
				Name:   model.EventFallbackTriggered,
				Fields: map[string]any{"reason": "corpus_load_failed", "error": err.Error()},
			})
		}
	}
	return Default()
}
