package ai

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

// TokenUsage holds provider-reported token counts; nil means not reported.
type TokenUsage struct {
	InputTokens  *int
	OutputTokens *int
	TotalTokens  *int
}

type UsageReport struct {
	TokenUsage
	Model string
}

// UsageExtractor pulls token counts and the model name out of a raw completion response.
type UsageExtractor interface {
	Extract(raw []byte) UsageReport
}

// DefaultUsageExtractor reads the structured usage fields first and falls back
// to pattern matching on the raw body for anything still missing.
func DefaultUsageExtractor() UsageExtractor {
	return ChainUsage{StructuredUsage{}, RegexUsage{}}
}

// StructuredUsage understands the OpenAI, Gemini and LangChain usage shapes.
type StructuredUsage struct{}

func (StructuredUsage) Extract(raw []byte) UsageReport {
	var doc map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return UsageReport{}
	}

	var out UsageReport
	for _, key := range []string{"usage", "usage_metadata", "usageMetadata"} {
		m, ok := doc[key].(map[string]interface{})
		if !ok {
			continue
		}
		out.InputTokens = firstInt(out.InputTokens, m, "prompt_tokens", "input_tokens", "promptTokenCount")
		out.OutputTokens = firstInt(out.OutputTokens, m, "completion_tokens", "output_tokens", "candidatesTokenCount")
		out.TotalTokens = firstInt(out.TotalTokens, m, "total_tokens", "totalTokenCount")
	}
	out.Model = firstString(doc, "model", "model_name", "modelVersion")
	if md, ok := doc["response_metadata"].(map[string]interface{}); ok && out.Model == "" {
		out.Model = firstString(md, "model_name", "model")
	}
	return out
}

var (
	inputTokensRe  = regexp.MustCompile(`["']?(?:input_tokens|prompt_tokens|promptTokenCount)["']?\s*[:=]\s*(\d+)`)
	outputTokensRe = regexp.MustCompile(`["']?(?:output_tokens|completion_tokens|candidatesTokenCount)["']?\s*[:=]\s*(\d+)`)
	totalTokensRe  = regexp.MustCompile(`["']?(?:total_tokens|totalTokenCount)["']?\s*[:=]\s*(\d+)`)
	modelNameRe    = regexp.MustCompile(`["']?(?:model_name|modelVersion|model)["']?\s*[:=]\s*["']([^"']+)["']`)
)

// RegexUsage scans the stringified response for usage-looking key/value pairs.
type RegexUsage struct{}

func (RegexUsage) Extract(raw []byte) UsageReport {
	s := string(raw)
	out := UsageReport{
		TokenUsage: TokenUsage{
			InputTokens:  matchInt(inputTokensRe, s),
			OutputTokens: matchInt(outputTokensRe, s),
			TotalTokens:  matchInt(totalTokensRe, s),
		},
	}
	if m := modelNameRe.FindStringSubmatch(s); m != nil {
		out.Model = m[1]
	}
	return out
}

// ChainUsage asks each extractor in order and keeps the first value found per field.
type ChainUsage []UsageExtractor

func (c ChainUsage) Extract(raw []byte) UsageReport {
	var out UsageReport
	for _, ex := range c {
		r := ex.Extract(raw)
		if out.InputTokens == nil {
			out.InputTokens = r.InputTokens
		}
		if out.OutputTokens == nil {
			out.OutputTokens = r.OutputTokens
		}
		if out.TotalTokens == nil {
			out.TotalTokens = r.TotalTokens
		}
		if out.Model == "" {
			out.Model = r.Model
		}
	}
	if out.TotalTokens == nil && out.InputTokens != nil && out.OutputTokens != nil {
		total := *out.InputTokens + *out.OutputTokens
		out.TotalTokens = &total
	}
	return out
}

func firstInt(current *int, m map[string]interface{}, keys ...string) *int {
	if current != nil {
		return current
	}
	for _, k := range keys {
		n, ok := m[k].(json.Number)
		if !ok {
			continue
		}
		v, err := n.Int64()
		if err != nil {
			continue
		}
		i := int(v)
		return &i
	}
	return nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func matchInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}
