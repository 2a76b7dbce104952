package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, out <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for out != nil || errCh != nil {
		select {
		case r, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			responses = append(responses, r)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return responses, err
			}
		}
	}
	return responses, nil
}

func TestMockModel_KeyedResponse(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "hi there")

	out, errCh := m.Generate(context.Background(), Request{Input: "hello"})
	responses, err := collect(t, out, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "hi there", responses[0].Text)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "stop", responses[0].FinishReason)
}

func TestMockModel_QueueOrder(t *testing.T) {
	m := NewMockModel("test")
	m.QueueResponses("first", "second")

	for _, want := range []string{"first", "second"} {
		out, errCh := m.Generate(context.Background(), Request{Input: "anything"})
		responses, err := collect(t, out, errCh)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, want, responses[0].Text)
	}
	assert.Equal(t, 2, m.Calls())
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("go", "abc")

	out, errCh := m.Generate(context.Background(), Request{Input: "go", Stream: true})
	responses, err := collect(t, out, errCh)
	require.NoError(t, err)

	// Three partial chunks followed by the final response.
	require.Len(t, responses, 4)
	assert.True(t, responses[0].Partial)
	assert.Equal(t, "a", responses[0].Text)
	final := responses[3]
	assert.False(t, final.Partial)
	assert.Equal(t, "abc", final.Text)
}

func TestMockModel_FailWith(t *testing.T) {
	m := NewMockModel("test")
	m.FailWith(errors.New("boom"))

	out, errCh := m.Generate(context.Background(), Request{Input: "anything"})
	_, err := collect(t, out, errCh)
	assert.ErrorContains(t, err, "boom")
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel("mock-1")
	assert.Equal(t, Info{Name: "mock-1", Provider: "mock"}, m.Info())
}
