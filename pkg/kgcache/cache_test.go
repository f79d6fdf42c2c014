package kgcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeKeyStableRegardlessOfKwargOrder(t *testing.T) {
	a := MakeKey(TypeFetchedDoc, []string{"url1"}, map[string]interface{}{"b": 2, "a": 1})
	b := MakeKey(TypeFetchedDoc, []string{"url1"}, map[string]interface{}{"a": 1, "b": 2})
	assert.Equal(t, a, b)
}

func TestMakeKeyDiffersByCacheType(t *testing.T) {
	a := MakeKey(TypeFetchedDoc, []string{"url1"}, nil)
	b := MakeKey(TypeCleanedText, []string{"url1"}, nil)
	assert.NotEqual(t, a, b)
}

func TestDefaultTTLFallsBackForUnknownType(t *testing.T) {
	assert.Equal(t, fallbackTTL, DefaultTTL(CacheType("unrecognized")))
}

func TestDefaultTTLMatchesDocumentedValues(t *testing.T) {
	assert.Equal(t, 24*60*60*1e9, float64(DefaultTTL(TypeFetchedDoc)))
	assert.Equal(t, 7*24*60*60*1e9, float64(DefaultTTL(TypeEmbedding)))
	assert.Equal(t, 60*60*1e9, float64(DefaultTTL(TypeSourceScore)))
}
