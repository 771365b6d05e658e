package agent

import (
	"fmt"
	"regexp"
	"sync"
)

var toolNamePattern = regexp.MustCompile(`^\w+$`)

// StaticToolCatalog is the default in-memory implementation of ToolCatalog.
type StaticToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewStaticToolCatalog constructs a catalog seeded with the provided tools.
func NewStaticToolCatalog(tools ...Tool) (*StaticToolCatalog, error) {
	catalog := &StaticToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
	for _, tool := range tools {
		if err := catalog.Register(tool); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// Register adds a tool under its exact spec name. The name must be a single
// word token so an action directive can address it.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	if spec.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if !toolNamePattern.MatchString(spec.Name) {
		return fmt.Errorf("tool name %q is not addressable by an action directive", spec.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[spec.Name]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[spec.Name] = tool
	c.specs[spec.Name] = spec
	c.order = append(c.order, spec.Name)
	return nil
}

// Lookup returns the tool and its specification if present. Names are
// case-sensitive.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tool, ok := c.tools[name]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, c.specs[name], true
}

// Specs returns a snapshot of the tool specifications in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

// Tools returns the registered tools in order.
func (c *StaticToolCatalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(c.order))
	for _, key := range c.order {
		tools = append(tools, c.tools[key])
	}
	return tools
}
