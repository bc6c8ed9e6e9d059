package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-agent-be/internal/constant"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/llm/llmtest"
	"ai-agent-be/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	weatherStep = "Thought: I should check the weather.\nAction:\n```json\n{\"action\": \"get_weather\", \"action_input\": {\"city\": \"Seoul\"}}\n```"
	finalStep   = "Action:\n```json\n{\"action\": \"Final Answer\", \"action_input\": \"Sunny in Seoul.\"}\n```"
)

// scriptedSteps answers each reasoning step with the next script entry,
// repeating the last one when the script runs out
func scriptedSteps(steps ...string) *llmtest.Provider {
	call := 0
	return &llmtest.Provider{
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			step := steps[len(steps)-1]
			if call < len(steps) {
				step = steps[call]
			}
			call++
			// split so the step arrives in several fragments
			mid := len(step) / 2
			return llm.NewSliceStream(step[:mid], step[mid:]), nil
		},
	}
}

func TestReact_RunsToolThenFinishes(t *testing.T) {
	model := scriptedSteps(weatherStep, finalStep)
	session := newSession(model, StructuredReasoning)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "Sunny, 25C in " + args["city"].(string), nil
	})

	sink := &recordingSink{}
	stream, err := newTestDispatcher(session, sink).Run(context.Background(), "weather in Seoul?")
	require.NoError(t, err)

	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Contains(t, out, weatherStep)
	assert.Contains(t, out, "Observation: Sunny, 25C in Seoul")
	assert.True(t, strings.HasSuffix(out, finalStep))

	require.Len(t, model.StreamCalls, 2)
	system := model.StreamCalls[0][0].Content
	assert.Contains(t, system, "get_weather: Current weather for a city")
	assert.Contains(t, system, `"Final Answer" or "get_weather"`)
	assert.Contains(t, system, "Office closes at 6pm.")
	assert.Contains(t, lastPrompt(model), "Observation: Sunny, 25C in Seoul\nThought: ")

	assert.Equal(t, []string{"tool.executed:selected", "dispatch.completed:completed"}, sink.types())
}

func TestReact_FragmentsOfOneStepShareID(t *testing.T) {
	stream, err := newTestDispatcher(newSession(scriptedSteps(finalStep), StructuredReasoning), nil).
		Run(context.Background(), "hi")
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Recv()
	require.NoError(t, err)
	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, finalStep, first.Content+second.Content)
}

func TestReact_ParseErrorIsFedBack(t *testing.T) {
	model := scriptedSteps("I am not sure what to do", finalStep)

	stream, err := newTestDispatcher(newSession(model, StructuredReasoning), nil).Run(context.Background(), "hi")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)

	assert.Contains(t, out, "Observation: "+constant.AgentReactParseError)
	require.Len(t, model.StreamCalls, 2)
	assert.Contains(t, lastPrompt(model), "I am not sure what to do\nObservation: "+constant.AgentReactParseError)
}

func TestReact_ToolFailureUsesFallback(t *testing.T) {
	model := scriptedSteps(weatherStep, finalStep)
	session := newSession(model, StructuredReasoning)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "", errors.New("weather service down")
	})

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "weather in Seoul?")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Contains(t, out, "Observation: "+constant.AgentFailActionPrompt)
}

func TestReact_UnknownToolObservation(t *testing.T) {
	step := "```json\n{\"action\": \"send_email\", \"action_input\": {\"to\": \"a@b.c\"}}\n```"
	model := scriptedSteps(step, finalStep)
	session := newSession(model, StructuredReasoning)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "", nil
	})

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "mail bob")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Contains(t, out, `send_email is not a valid tool, try one of ["get_weather"].`)
}

func TestReact_StopsAtIterationLimit(t *testing.T) {
	model := scriptedSteps(weatherStep)
	session := newSession(model, StructuredReasoning)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "Sunny", nil
	})

	cfg := DefaultConfig()
	cfg.MaxIterations = 2
	stream, err := NewDispatcher(session, cfg, newSilentLogger(), nil).Run(context.Background(), "weather?")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)

	assert.Len(t, model.StreamCalls, 2)
	assert.True(t, strings.HasSuffix(out, constant.AgentReactIterationLimit))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		action  string
		wantErr bool
	}{
		{name: "fenced json", text: weatherStep, action: "get_weather"},
		{name: "fenced without language", text: "```\n{\"action\": \"Final Answer\", \"action_input\": \"hi\"}\n```", action: "Final Answer"},
		{name: "bare blob", text: `Thought: done {"action": "Final Answer", "action_input": "hi"}`, action: "Final Answer"},
		{name: "no blob", text: "just words", wantErr: true},
		{name: "broken json", text: "```json\n{\"action\": \n```", wantErr: true},
		{name: "missing action", text: `{"action_input": "x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := parseAction(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, action.Action)
		})
	}
}

func TestReactAction_Arguments(t *testing.T) {
	d := tools.Descriptor{Params: []tools.Param{
		{Name: "units", Type: tools.TypeString},
		{Name: "city", Type: tools.TypeString, Required: true},
	}}

	args, err := (&reactAction{ActionInput: []byte(`{"city":"Oslo"}`)}).arguments(d)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"city": "Oslo"}, args)

	args, err = (&reactAction{ActionInput: []byte(`"Oslo"`)}).arguments(d)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"city": "Oslo"}, args)

	args, err = (&reactAction{}).arguments(d)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestFinalAnswer(t *testing.T) {
	transcript := "Thought: look it up\n```json\n{\"action\": \"get_weather\", \"action_input\": \"Oslo\"}\n```\n" +
		"\nObservation: 3C\n" +
		"```json\n{\"action\": \"Final Answer\", \"action_input\": \"It is 3C in Oslo.\"}\n```"
	assert.Equal(t, "It is 3C in Oslo.", FinalAnswer(transcript))

	structured := "```json\n{\"action\": \"Final Answer\", \"action_input\": {\"temp\": 3}}\n```"
	assert.Equal(t, `{"temp": 3}`, FinalAnswer(structured))

	assert.Equal(t, "plain answer", FinalAnswer("plain answer"))
	assert.Equal(t, "Agent stopped", FinalAnswer("Agent stopped"))
}
