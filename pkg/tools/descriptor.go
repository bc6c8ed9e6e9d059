package tools

import (
	"ai-agent-be/pkg/llm"
	"encoding/json"
	"sort"
)

// ParamType is a JSON schema type tag
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Descriptor is everything a model needs to pick a tool
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// Schema renders the parameters as a JSON schema object
func (d Descriptor) Schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(d.Params))
	required := make([]string, 0)
	for _, p := range d.Params {
		prop := map[string]interface{}{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (d Descriptor) LLMTool() llm.Tool {
	return llm.Tool{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Schema(),
	}
}

// Render is the one-line form used inside reasoning prompts
func (d Descriptor) Render() string {
	props := make(map[string]map[string]string, len(d.Params))
	for _, p := range d.Params {
		props[p.Name] = map[string]string{"type": string(p.Type)}
	}
	args, _ := json.Marshal(props)
	return d.Name + ": " + d.Description + ", args: " + string(args)
}

// DescriptorFromSchema builds a descriptor from a JSON schema object as
// published by remote tool servers. Parameters are sorted by name.
func DescriptorFromSchema(name, description string, schema map[string]interface{}) Descriptor {
	d := Descriptor{Name: name, Description: description}

	required := map[string]bool{}
	switch req := schema["required"].(type) {
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	case []string:
		for _, s := range req {
			required[s] = true
		}
	}

	props, _ := schema["properties"].(map[string]interface{})
	for pname, raw := range props {
		param := Param{Name: pname, Type: TypeString, Required: required[pname]}
		if prop, ok := raw.(map[string]interface{}); ok {
			if t, ok := prop["type"].(string); ok && t != "" {
				param.Type = ParamType(t)
			}
			if desc, ok := prop["description"].(string); ok {
				param.Description = desc
			}
		}
		d.Params = append(d.Params, param)
	}
	sort.Slice(d.Params, func(i, j int) bool { return d.Params[i].Name < d.Params[j].Name })
	return d
}
