package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cmeth990/kgctl/pkg/egress"
	"github.com/cmeth990/kgctl/pkg/kgschema"
	"github.com/cmeth990/kgctl/pkg/llm"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/validation"
)

// maxWrappedInputChars bounds how much of the user input is embedded in the
// extraction prompt.
const maxWrappedInputChars = 20000

// Extract decides between cheap heuristic extraction and model extraction
// for text, and returns a validated candidate batch. client may be nil,
// forcing cheap extraction regardless of confidence.
func Extract(ctx context.Context, client llm.ModelClient, text string, requireProvenance bool) (validation.ExtractorOutput, error) {
	cheap := ShouldUseModel(text)

	if !cheap.UseModel || client == nil {
		out, err := cheapExtraction(text, cheap)
		if err != nil {
			return validation.ExtractorOutput{}, err
		}
		return validation.ValidateExtractorOutput(out, requireProvenance)
	}

	out, err := modelExtraction(ctx, client, text)
	if err != nil {
		// Model extraction failing degrades to cheap extraction rather
		// than losing the turn entirely.
		out, err = cheapExtraction(text, cheap)
		if err != nil {
			return validation.ExtractorOutput{}, err
		}
	}

	return validation.ValidateExtractorOutput(out, requireProvenance)
}

func cheapExtraction(text string, cheap CheapResult) (validation.ExtractorOutput, error) {
	topic := topicName(text, cheap.NER)
	if topic == "" {
		topic = "unknown_topic"
	}

	id, err := kgschema.GenerateID(models.NodeKindConcept)
	if err != nil {
		return validation.ExtractorOutput{}, err
	}

	return validation.ExtractorOutput{
		Entities: []validation.ExtractedEntity{
			{
				Name: topic,
				Kind: models.NodeKindConcept,
				Properties: map[string]interface{}{
					"id":                id,
					"name":              topic,
					"description":       fmt.Sprintf("Topic: %s", topic),
					"domain":            "general",
					"extraction_method": "cheap_verification",
					"confidence":        cheap.Confidence,
				},
			},
		},
	}, nil
}

const extractionPromptTemplate = `Extract entities, relations, and claims from the following text for a knowledge graph.

Respond with a single JSON object of the shape:
{
  "entities": [{"name": "...", "kind": "Concept|Claim|Evidence|Source|Method|Scope|Position|Process", "properties": {...}}],
  "relations": [{"from_name": "...", "to_name": "...", "type": "DEFINES|SUPPORTS|REFUTES|PREREQ|PartOf|IsA|RELATED_TO|...", "properties": {...}}],
  "claims": [{"statement": "...", "confidence": 0.0, "name": "...", "source_id": "...", "evidence_ids": []}]
}

Text:
%s`

var codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func modelExtraction(ctx context.Context, client llm.ModelClient, text string) (validation.ExtractorOutput, error) {
	safeInput := egress.WrapUntrustedContent(egress.SanitizeForLLM(text, maxWrappedInputChars))
	prompt := fmt.Sprintf(extractionPromptTemplate, safeInput)

	resp, err := client.Invoke(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return validation.ExtractorOutput{}, err
	}

	content := strings.TrimSpace(resp.Content)
	if match := codeFencePattern.FindStringSubmatch(content); match != nil {
		content = match[1]
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return validation.ExtractorOutput{}, fmt.Errorf("parse extraction response: %w", err)
	}

	return raw.toOutput(), nil
}

// rawExtraction mirrors the JSON shape requested of the model, kept
// separate from validation.ExtractorOutput since the model may omit an ID
// or use a loose kind/type label that needs normalizing before validation.
type rawExtraction struct {
	Entities []struct {
		Name       string                 `json:"name"`
		Kind       string                 `json:"kind"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"entities"`
	Relations []struct {
		FromName   string                 `json:"from_name"`
		ToName     string                 `json:"to_name"`
		Type       string                 `json:"type"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"relations"`
	Claims []struct {
		Statement   string   `json:"statement"`
		Confidence  float64  `json:"confidence"`
		Name        string   `json:"name"`
		SourceID    string   `json:"source_id"`
		EvidenceIDs []string `json:"evidence_ids"`
	} `json:"claims"`
}

func (r rawExtraction) toOutput() validation.ExtractorOutput {
	out := validation.ExtractorOutput{}
	for _, e := range r.Entities {
		out.Entities = append(out.Entities, validation.ExtractedEntity{
			Name:       e.Name,
			Kind:       models.NodeKind(e.Kind),
			Properties: e.Properties,
		})
	}
	for _, rel := range r.Relations {
		out.Relations = append(out.Relations, validation.ExtractedRelation{
			FromName:   rel.FromName,
			ToName:     rel.ToName,
			Type:       rel.Type,
			Properties: rel.Properties,
		})
	}
	for _, c := range r.Claims {
		out.Claims = append(out.Claims, validation.ExtractedClaim{
			Statement:   c.Statement,
			Confidence:  c.Confidence,
			Name:        c.Name,
			SourceID:    c.SourceID,
			EvidenceIDs: c.EvidenceIDs,
		})
	}
	return out
}
