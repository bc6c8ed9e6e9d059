package agent

import (
	"ai-agent-be/internal/constant"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/tools"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const finalAnswerAction = "Final Answer"

var jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

type reactAction struct {
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
}

// parseAction extracts the single action blob of a reasoning step
func parseAction(text string) (*reactAction, error) {
	var candidate string
	if m := jsonBlockPattern.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, errors.New("no json blob in step")
		}
		candidate = text[start : end+1]
	}

	var action reactAction
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &action); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	if action.Action == "" {
		return nil, errors.New("action is empty")
	}
	return &action, nil
}

// arguments maps action_input onto the tool's parameters. A bare value is
// given to the first required parameter, or the first one if none is required.
func (a *reactAction) arguments(d tools.Descriptor) (map[string]interface{}, error) {
	raw := bytes.TrimSpace(a.ActionInput)
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]interface{}{}, nil
	}
	if raw[0] == '{' {
		args := map[string]interface{}{}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		return args, nil
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	if len(d.Params) == 0 {
		return map[string]interface{}{}, nil
	}
	target := d.Params[0].Name
	for _, p := range d.Params {
		if p.Required {
			target = p.Name
			break
		}
	}
	return map[string]interface{}{target: value}, nil
}

// FinalAnswer extracts the answer from a reasoning transcript, so only the
// answer is kept as the assistant's message. Transcripts without a final
// answer blob are returned unchanged.
func FinalAnswer(transcript string) string {
	blocks := jsonBlockPattern.FindAllStringSubmatch(transcript, -1)
	for i := len(blocks) - 1; i >= 0; i-- {
		var action reactAction
		if err := json.Unmarshal([]byte(strings.TrimSpace(blocks[i][1])), &action); err != nil {
			continue
		}
		if action.Action != finalAnswerAction {
			continue
		}
		var text string
		if err := json.Unmarshal(action.ActionInput, &text); err == nil {
			return text
		}
		return string(bytes.TrimSpace(action.ActionInput))
	}
	return transcript
}

func renderTools(descriptors []tools.Descriptor) (string, string) {
	lines := make([]string, len(descriptors))
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		lines[i] = d.Render()
		names[i] = fmt.Sprintf("%q", d.Name)
	}
	return strings.Join(lines, "\n"), strings.Join(names, ", ")
}

// reactStream runs the reasoning loop lazily: each step's model reply is
// relayed as it arrives, and the next step starts once the previous one
// has been read to the end.
type reactStream struct {
	*turn
	ctx context.Context
	d   *Dispatcher

	system      string
	input       string
	descriptors map[string]tools.Descriptor
	names       string

	current    llm.Stream
	id         string
	step       strings.Builder
	scratchpad strings.Builder
	iterations int
	pending    []Fragment
	done       bool
}

// startReact makes the first model call before returning so that a model
// failure surfaces as a dispatch error with no partial stream.
func (d *Dispatcher) startReact(ctx context.Context, t *turn, input, history, knowledge string) (Stream, error) {
	descriptors := d.session.Local.Descriptors()
	rendered, names := renderTools(descriptors)

	s := &reactStream{
		turn:        t,
		ctx:         ctx,
		d:           d,
		system:      fmt.Sprintf(constant.AgentReactSystemPrompt, rendered, names, history, knowledge),
		input:       input,
		descriptors: make(map[string]tools.Descriptor, len(descriptors)),
		names:       names,
	}
	if d.session.SystemPrompt != "" {
		s.system = d.session.SystemPrompt + "\n\n" + s.system
	}
	for _, desc := range descriptors {
		s.descriptors[desc.Name] = desc
	}

	if err := s.nextStep(StageStrategyExec); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *reactStream) messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: s.system},
		{Role: llm.RoleUser, Content: fmt.Sprintf(constant.AgentReactUserPrompt, s.input, s.scratchpad.String())},
	}
}

func (s *reactStream) nextStep(stage Stage) error {
	src, err := s.d.session.Model.Stream(s.ctx, s.messages(), llm.WithTemperature(0))
	if err != nil {
		return transportError(stage, err)
	}
	s.current = src
	s.id = newFragmentID()
	s.iterations++
	return nil
}

func (s *reactStream) Recv() (Fragment, error) {
	for {
		if len(s.pending) > 0 {
			fragment := s.pending[0]
			s.pending = s.pending[1:]
			return fragment, nil
		}
		if s.done {
			s.finish(nil)
			return Fragment{}, io.EOF
		}

		chunk, err := s.current.Recv()
		if err == nil {
			if chunk.Content == "" {
				continue
			}
			s.step.WriteString(chunk.Content)
			return Fragment{ID: s.id, Content: chunk.Content}, nil
		}
		if !errors.Is(err, io.EOF) {
			err = transportError(StageStream, err)
			s.finish(err)
			return Fragment{}, err
		}

		_ = s.current.Close()
		s.current = nil
		if err := s.afterStep(); err != nil {
			s.finish(err)
			return Fragment{}, err
		}
	}
}

func (s *reactStream) afterStep() error {
	output := s.step.String()
	s.step.Reset()

	var observation string
	action, err := parseAction(output)
	switch {
	case err != nil:
		s.d.logger.Debug("Dispatcher", "unparseable reasoning step", map[string]interface{}{
			"dialog_id": s.d.session.DialogID.String(),
			"error":     err.Error(),
		})
		observation = constant.AgentReactParseError
	case action.Action == finalAnswerAction:
		s.done = true
		reactIterations.Observe(float64(s.iterations))
		return nil
	default:
		observation = s.runTool(action)
	}

	s.scratchpad.WriteString(output)
	s.scratchpad.WriteString("\nObservation: " + observation + "\nThought: ")
	s.pending = append(s.pending, Fragment{ID: newFragmentID(), Content: "\nObservation: " + observation + "\n"})

	if s.iterations >= s.d.cfg.MaxIterations {
		s.pending = append(s.pending, Fragment{ID: newFragmentID(), Content: constant.AgentReactIterationLimit})
		s.done = true
		reactIterations.Observe(float64(s.iterations))
		return nil
	}
	return s.nextStep(StageStream)
}

func (s *reactStream) runTool(action *reactAction) string {
	descriptor, ok := s.descriptors[action.Action]
	if !ok {
		s.d.recordTool(s.ctx, catalogLocal, Resolution{
			Kind: ExecutionFailed,
			Tool: action.Action,
			Err:  fmt.Errorf("%w: %s", tools.ErrUnknownTool, action.Action),
		})
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", action.Action, s.names)
	}

	args, err := action.arguments(descriptor)
	if err != nil {
		return constant.AgentReactParseError
	}

	out, err := s.d.session.Local.Invoke(s.ctx, action.Action, args)
	if err != nil {
		s.d.recordTool(s.ctx, catalogLocal, Resolution{Kind: ExecutionFailed, Tool: action.Action, Args: args, Err: err})
		return s.d.cfg.FallbackText
	}
	s.d.recordTool(s.ctx, catalogLocal, Resolution{Kind: Selected, Tool: action.Action, Args: args, Output: out})
	return out
}

func (s *reactStream) Close() error {
	var err error
	if s.current != nil {
		err = s.current.Close()
	}
	s.finish(context.Canceled)
	return err
}
