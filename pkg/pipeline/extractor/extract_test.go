package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/cmeth990/kgctl/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	resp llm.Response
	err  error
}

func (f *fakeClient) Invoke(ctx context.Context, req llm.Request) (llm.Response, error) {
	return f.resp, f.err
}

func TestExtractUsesCheapPathForHighConfidenceShortText(t *testing.T) {
	out, err := Extract(context.Background(), nil, "some input=thermodynamics", false)
	require.NoError(t, err)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "cheap_verification", out.Entities[0].Properties["extraction_method"])
}

func TestExtractUsesModelPathAndParsesJSONResponse(t *testing.T) {
	client := &fakeClient{resp: llm.Response{Content: "```json\n" + `{
		"entities": [{"name": "Thermodynamics", "kind": "Concept", "properties": {"domain": "physics"}}],
		"relations": [],
		"claims": []
	}` + "\n```"}}

	shortLowConfidence := "hi there"
	out, err := Extract(context.Background(), client, shortLowConfidence, false)
	require.NoError(t, err)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "Thermodynamics", out.Entities[0].Name)
}

func TestExtractFallsBackToCheapWhenModelErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("model unavailable")}
	out, err := Extract(context.Background(), client, "hi", false)
	require.NoError(t, err)
	require.Len(t, out.Entities, 1)
}

func TestExtractFallsBackToCheapWhenModelReturnsUnparseableJSON(t *testing.T) {
	client := &fakeClient{resp: llm.Response{Content: "not json"}}
	out, err := Extract(context.Background(), client, "hi", false)
	require.NoError(t, err)
	require.Len(t, out.Entities, 1)
}
