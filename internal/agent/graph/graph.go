// Package graph composes the per-turn pipeline as an eino graph:
// understand (NLU) -> dialog (context merge + flow engine) -> respond
// (selection + durability).
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/dialogcore/server/internal/agent/dialog"
	"github.com/dialogcore/server/internal/agent/graph/nodes"
	"github.com/dialogcore/server/internal/agent/model"
	"github.com/dialogcore/server/internal/agent/nlu"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// Runner is the sole call surface the surrounding application uses.
type Runner interface {
	ProcessTurn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
}

// Config holds everything needed to compose the turn graph end-to-end.
type Config struct {
	Pipeline   model.PipelineConfig
	Corpus     *model.Corpus
	Classifier *nlu.Classifier
	Sessions   model.SessionStore
	Messages   model.MessageRepository
	Notifier   model.Notifier
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type turnRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.TurnResult]

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// ProcessTurn runs one utterance through the pipeline. Turns for the same
// session are applied atomically under a per-session lock so concurrent
// messages cannot lose updates; unrelated sessions proceed in parallel.
func (r *turnRunner) ProcessTurn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	lock := r.acquire(in.SessionID)
	defer r.release(in.SessionID, lock)

	return r.runnable.Invoke(ctx, in)
}

// acquire takes the session's lock, creating the entry on first use. Entries
// are refcounted and dropped by release once the last holder is gone, so the
// table tracks in-flight sessions, not every session id ever seen.
func (r *turnRunner) acquire(sessionID string) *sessionLock {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		r.locks[sessionID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return l
}

func (r *turnRunner) release(sessionID string, l *sessionLock) {
	l.mu.Unlock()
	r.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, sessionID)
	}
	r.mu.Unlock()
}

// BuildTurnGraph constructs the NLU components from the corpus, wires the
// graph, and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Corpus == nil {
		return nil, fmt.Errorf("corpus is nil")
	}
	if cfg.Classifier == nil || !cfg.Classifier.Trained() {
		return nil, errx.ErrModelNotTrained
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is nil")
	}

	ttl, err := time.ParseDuration(cfg.Pipeline.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL %q: %w", cfg.Pipeline.SessionTTL, err)
	}

	extractor := nlu.NewExtractor(nlu.MergeEntityTypes(cfg.Corpus.Entities))
	scorer := nlu.NewScorer(cfg.Pipeline.SentimentThreshold)
	manager := dialog.NewContextManager(cfg.Pipeline.MaxHistoryTurns, ttl)
	engine := dialog.NewEngine(cfg.Corpus, cfg.Notifier)
	selector := dialog.NewSelector(cfg.Corpus, cfg.Pipeline.ResponseSeed)

	g := compose.NewGraph[model.TurnInput, *model.TurnResult](
		compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
			return &model.AppState{}
		}),
	)

	g.AddLambdaNode(nodes.NodeUnderstand,
		nodes.NewUnderstandNode(extractor, scorer, cfg.Classifier, cfg.Notifier),
		compose.WithStatePreHandler(nodes.NewUnderstandPreHandler()),
	)
	g.AddLambdaNode(nodes.NodeDialog,
		nodes.NewDialogNode(cfg.Sessions, manager, engine),
	)
	g.AddLambdaNode(nodes.NodeRespond,
		nodes.NewRespondNode(selector, cfg.Sessions, cfg.Messages, cfg.Notifier, ttl),
		compose.WithStatePostHandler(nodes.NewRespondPostHandler()),
	)

	edges := [][2]string{
		{compose.START, nodes.NodeUnderstand},
		{nodes.NodeUnderstand, nodes.NodeDialog},
		{nodes.NodeDialog, nodes.NodeRespond},
		{nodes.NodeRespond, compose.END},
	}
	for _, edge := range edges {
		g.AddEdge(edge[0], edge[1])
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("error compiling turn graph")
		return nil, fmt.Errorf("error compiling turn graph: %w", err)
	}

	logx.Debug().Msg("turn graph compiled successfully")
	return &turnRunner{runnable: runnable, locks: make(map[string]*sessionLock)}, nil
}
