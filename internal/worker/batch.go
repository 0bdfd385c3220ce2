package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ideascore/internal/model"
)

// Scorer scores one idea. pipeline.Pipeline satisfies it.
type Scorer interface {
	ScoreIdea(ctx context.Context, input model.IdeaInput) (model.IdeaScoreResult, error)
}

// ScoreJob scores one idea; Index is its position in the input batch.
type ScoreJob struct {
	Index  int
	Input  model.IdeaInput
	Scorer Scorer
}

// Execute implements Job.
func (j *ScoreJob) Execute(ctx context.Context) Result {
	result, err := j.Scorer.ScoreIdea(ctx, j.Input)
	return &ScoreResult{
		Index:  j.Index,
		IdeaID: j.Input.ID,
		Result: result,
		Error:  err,
	}
}

// ScoreResult is the outcome of a ScoreJob.
type ScoreResult struct {
	Index  int
	IdeaID string
	Result model.IdeaScoreResult
	Error  error
}

// GetError implements Result.
func (r *ScoreResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many ideas concurrently.
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
	onResult    func(*ScoreResult)
}

// NewBatchProcessor creates a processor running up to concurrency ideas at once.
func NewBatchProcessor(scorer Scorer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
	}
}

// OnResult registers a callback invoked as each idea finishes, from the worker goroutine.
func (b *BatchProcessor) OnResult(fn func(*ScoreResult)) {
	b.onResult = fn
}

// ProcessIdeas scores every input and returns results in input order.
// Ideas not started before ctx is cancelled are reported with ctx's error.
func (b *BatchProcessor) ProcessIdeas(ctx context.Context, inputs []model.IdeaInput) []*ScoreResult {
	if len(inputs) == 0 {
		return []*ScoreResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, input := range inputs {
		job := &notifyingJob{
			ScoreJob: ScoreJob{Index: i, Input: input, Scorer: b.scorer},
			notify:   b.onResult,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	ordered := make([]*ScoreResult, len(inputs))
	for _, r := range results {
		sr := r.(*ScoreResult)
		ordered[sr.Index] = sr
	}
	for i, sr := range ordered {
		if sr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &ScoreResult{Index: i, IdeaID: inputs[i].ID, Error: fmt.Errorf("not scored: %w", err)}
		}
	}
	return ordered
}

type notifyingJob struct {
	ScoreJob
	notify func(*ScoreResult)
}

func (j *notifyingJob) Execute(ctx context.Context) Result {
	res := j.ScoreJob.Execute(ctx)
	if j.notify != nil {
		j.notify(res.(*ScoreResult))
	}
	return res
}

type ideaFile struct {
	Ideas []model.IdeaInput `json:"ideas" yaml:"ideas"`
}

// ReadIdeasFromFile loads ideas from JSON or YAML. The document is either a
// list of ideas or an object with an "ideas" list. Ideas without an ID get
// "idea-N" (1-based); duplicate IDs are rejected.
func ReadIdeasFromFile(filePath string) ([]model.IdeaInput, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var inputs []model.IdeaInput
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		inputs, err = decodeYAMLIdeas(data)
	default:
		inputs, err = decodeJSONIdeas(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	seen := make(map[string]bool, len(inputs))
	for i := range inputs {
		if strings.TrimSpace(inputs[i].ID) == "" {
			inputs[i].ID = fmt.Sprintf("idea-%d", i+1)
		}
		if seen[inputs[i].ID] {
			return nil, fmt.Errorf("duplicate idea id %q", inputs[i].ID)
		}
		seen[inputs[i].ID] = true
	}
	return inputs, nil
}

func decodeJSONIdeas(data []byte) ([]model.IdeaInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []model.IdeaInput
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var f ideaFile
	err := json.Unmarshal(trimmed, &f)
	return f.Ideas, err
}

func decodeYAMLIdeas(data []byte) ([]model.IdeaInput, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []model.IdeaInput
		err := node.Decode(&list)
		return list, err
	}
	var f ideaFile
	err := node.Decode(&f)
	return f.Ideas, err
}
