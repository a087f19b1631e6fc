package steps

import (
	"context"
	"errors"
)

// stubAI is a canned provider for step tests. Leave a function nil to make
// that call fail.
type stubAI struct {
	embedFn func(inputs []string) ([][]float32, error)
	textFn  func(system, user string) (string, error)
	jsonFn  func(system, user, schemaName string) (map[string]any, error)
}

func (s *stubAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if s.embedFn == nil {
		return nil, errors.New("embed not stubbed")
	}
	return s.embedFn(inputs)
}

func (s *stubAI) GenerateText(_ context.Context, system, user string) (string, error) {
	if s.textFn == nil {
		return "", errors.New("generate text not stubbed")
	}
	return s.textFn(system, user)
}

func (s *stubAI) GenerateJSON(_ context.Context, system, user, schemaName string, _ map[string]any) (map[string]any, error) {
	if s.jsonFn == nil {
		return nil, errors.New("generate json not stubbed")
	}
	return s.jsonFn(system, user, schemaName)
}

func (s *stubAI) EmbedModel() string { return "stub-embed" }
