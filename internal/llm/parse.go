package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/ideascore/internal/evaluate"
)

// ParseScores decodes a model answer into an oracle response.
//
// Accepted shapes for each factor value: a number, a numeric string, or an
// object with "score" and optional "rationale". Keys are matched to the
// requested factor keys case-insensitively; unmatched keys pass through so
// the evaluator can drop them. Values that are not numbers are skipped.
func ParseScores(text string, requested []string) (*evaluate.Response, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	scoresRaw, ok := lookup(doc, "factor_scores", "scores")
	if !ok {
		return nil, fmt.Errorf("%w: missing factor_scores", ErrMalformedResponse)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(scoresRaw, &entries); err != nil {
		return nil, fmt.Errorf("%w: factor_scores is not an object", ErrMalformedResponse)
	}

	canonical := make(map[string]string, len(requested))
	for _, k := range requested {
		canonical[strings.ToLower(k)] = k
	}

	// An exact-case key beats case variants; among variants the first in
	// sorted order wins.
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	resp := &evaluate.Response{Scores: make(map[string]evaluate.OracleScore, len(entries))}
	exact := make(map[string]bool, len(entries))
	for _, key := range keys {
		score, ok := decodeScore(entries[key])
		if !ok {
			continue
		}
		target := key
		if k, found := canonical[strings.ToLower(strings.TrimSpace(key))]; found {
			target = k
		}
		isExact := target == key
		if _, seen := resp.Scores[target]; seen && (exact[target] || !isExact) {
			continue
		}
		resp.Scores[target] = score
		exact[target] = isExact
	}

	if reasoning, ok := lookup(doc, "reasoning"); ok {
		_ = json.Unmarshal(reasoning, &resp.Reasoning)
	}
	return resp, nil
}

func lookup(doc map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		if v, ok := doc[n]; ok {
			return v, true
		}
	}
	return nil, false
}

func decodeScore(raw json.RawMessage) (evaluate.OracleScore, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return evaluate.OracleScore{}, false
	}

	switch t := v.(type) {
	case float64:
		return evaluate.OracleScore{Score: t}, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return evaluate.OracleScore{}, false
		}
		return evaluate.OracleScore{Score: f}, true
	case map[string]any:
		inner, ok := t["score"]
		if !ok {
			inner, ok = t["value"]
		}
		if !ok {
			return evaluate.OracleScore{}, false
		}
		data, _ := json.Marshal(inner)
		score, ok := decodeScore(data)
		if !ok {
			return evaluate.OracleScore{}, false
		}
		if r, ok := t["rationale"].(string); ok {
			score.Rationale = r
		} else if r, ok := t["reasoning"].(string); ok {
			score.Rationale = r
		}
		return score, true
	default:
		return evaluate.OracleScore{}, false
	}
}

// extractJSON pulls the JSON object out of a reply that may be wrapped in
// a markdown code fence or surrounded by prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "```"); start != -1 {
		body := response[start+3:]
		if nl := strings.Index(body, "\n"); nl != -1 {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end != -1 {
			candidate := strings.TrimSpace(body[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
