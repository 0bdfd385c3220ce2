// Package testutils holds deterministic test doubles shared across packages.
package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ppiankov/ideascore/internal/evaluate"
)

// ErrScripted is the default failure returned by ScriptedOracle.
var ErrScripted = errors.New("scripted oracle failure")

// ScriptedOracle answers from fixed tables instead of calling a model.
// Configure the exported fields before first use.
type ScriptedOracle struct {
	OracleName string
	Scores     map[string]float64            // Factor key -> score, for every idea
	ByIdea     map[string]map[string]float64 // Idea ID -> factor key -> score, overrides Scores
	Extra      map[string]float64            // Returned verbatim; used to inject unknown keys
	Rationale  string
	FailFirst  int   // Fail this many calls before answering
	FailAlways bool  // Fail every call
	FailErr    error // Error returned on failure; ErrScripted when nil
	Delay      time.Duration

	mu       sync.Mutex
	calls    int
	requests []evaluate.Request
}

// NewScriptedOracle returns an oracle that answers with scores for every idea.
func NewScriptedOracle(scores map[string]float64) *ScriptedOracle {
	return &ScriptedOracle{OracleName: "scripted", Scores: scores}
}

func (o *ScriptedOracle) Name() string {
	if o.OracleName == "" {
		return "scripted"
	}
	return o.OracleName
}

func (o *ScriptedOracle) Score(ctx context.Context, req evaluate.Request) (*evaluate.Response, error) {
	o.mu.Lock()
	o.calls++
	call := o.calls
	o.requests = append(o.requests, req)
	o.mu.Unlock()

	if o.Delay > 0 {
		timer := time.NewTimer(o.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if o.FailAlways || call <= o.FailFirst {
		if o.FailErr != nil {
			return nil, o.FailErr
		}
		return nil, ErrScripted
	}

	resp := &evaluate.Response{
		Scores:    make(map[string]evaluate.OracleScore),
		Reasoning: "scripted",
	}
	perIdea := o.ByIdea[req.IdeaID]
	for _, f := range req.Factors {
		if v, ok := perIdea[f.Key]; ok {
			resp.Scores[f.Key] = evaluate.OracleScore{Score: v, Rationale: o.Rationale}
			continue
		}
		if v, ok := o.Scores[f.Key]; ok {
			resp.Scores[f.Key] = evaluate.OracleScore{Score: v, Rationale: o.Rationale}
		}
	}
	for k, v := range o.Extra {
		resp.Scores[k] = evaluate.OracleScore{Score: v}
	}
	return resp, nil
}

// Calls returns how many times Score was invoked.
func (o *ScriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// Requests returns a copy of every request received.
func (o *ScriptedOracle) Requests() []evaluate.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]evaluate.Request, len(o.requests))
	copy(out, o.requests)
	return out
}
