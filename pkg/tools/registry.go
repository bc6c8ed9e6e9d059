package tools

import (
	"ai-agent-be/pkg/llm"
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("duplicate tool name")
	ErrInvalidArgs   = errors.New("invalid tool arguments")
	ErrToolPanicked  = errors.New("tool panicked")
)

// Action executes a tool with model-supplied arguments
type Action func(ctx context.Context, args map[string]interface{}) (string, error)

type Tool struct {
	Descriptor Descriptor
	Run        Action
}

// Registry holds every local action known to the process
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	name := tool.Descriptor.Name
	if name == "" || tool.Run == nil {
		return fmt.Errorf("tool %q needs a name and an action", name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = tool
	return nil
}

func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns the allow-listed subset in allow-list order.
// Unknown names are reported back rather than failing the whole catalog.
func (r *Registry) Catalog(allow []string) (*Catalog, []string) {
	var missing []string
	c := &Catalog{byName: make(map[string]Tool)}
	for _, name := range allow {
		tool, ok := r.tools[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if _, dup := c.byName[name]; dup {
			continue
		}
		c.byName[name] = tool
		c.order = append(c.order, name)
	}
	return c, missing
}

// Catalog is a read-only set of tools visible to one session
type Catalog struct {
	byName map[string]Tool
	order  []string
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

func (c *Catalog) Descriptors() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, len(c.order))
	for i, name := range c.order {
		out[i] = c.byName[name].Descriptor
	}
	return out
}

func (c *Catalog) LLMTools() []llm.Tool {
	descriptors := c.Descriptors()
	out := make([]llm.Tool, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.LLMTool()
	}
	return out
}

func (c *Catalog) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.byName[name]
	return ok
}

// Invoke runs one tool. A panicking action is reported as an error like
// any other failure.
func (c *Catalog) Invoke(ctx context.Context, name string, args map[string]interface{}) (out string, err error) {
	if c == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	tool, ok := c.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	for _, p := range tool.Descriptor.Params {
		if _, present := args[p.Name]; p.Required && !present {
			return "", fmt.Errorf("%w: %s requires %q", ErrInvalidArgs, name, p.Name)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %s: %v", ErrToolPanicked, name, r)
		}
	}()
	return tool.Run(ctx, args)
}
