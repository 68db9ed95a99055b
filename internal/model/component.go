// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Data source kinds
const (
	DataSourceStatic = "static"
	DataSourceAPI    = "api"
	DataSourceUser   = "user"
)

// Component is a single typed, configurable node within a page area.
// Children are strictly owned nested values: a child exists in exactly
// one parent and no back-references exist, so trees are acyclic by
// construction.
type Component struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Props      map[string]any     `json:"props,omitempty"`
	Styles     map[string]any     `json:"styles,omitempty"`
	DataSource *DataSource        `json:"data_source,omitempty"`
	Children   []Component        `json:"children,omitempty"`
	Conditions []DisplayCondition `json:"conditions,omitempty"`
	Events     []EventConfig      `json:"events,omitempty"`
	SortIndex  int                `json:"sort_index"`
}

// DataSource describes where a component's dynamic content comes from.
type DataSource struct {
	Kind    string         `json:"kind"`
	URL     string         `json:"url,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Binding string         `json:"binding,omitempty"`
}

// DisplayCondition gates a component's visibility on a runtime field.
type DisplayCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// EventConfig binds a client-side trigger to an action.
type EventConfig struct {
	Trigger string         `json:"trigger"`
	Action  string         `json:"action"`
	Params  map[string]any `json:"params,omitempty"`
}

// Walk visits the component and all descendants depth-first in
// declaration order.
func (c *Component) Walk(fn func(*Component)) {
	fn(c)
	for i := range c.Children {
		c.Children[i].Walk(fn)
	}
}

// Clone returns a deep copy of the component and its subtree. Props,
// styles and nested maps are copied via recursive map duplication.
func (c *Component) Clone() Component {
	out := *c
	out.Props = cloneMap(c.Props)
	out.Styles = cloneMap(c.Styles)
	if c.DataSource != nil {
		ds := *c.DataSource
		ds.Params = cloneMap(c.DataSource.Params)
		out.DataSource = &ds
	}
	if c.Conditions != nil {
		out.Conditions = append([]DisplayCondition(nil), c.Conditions...)
	}
	if c.Events != nil {
		out.Events = make([]EventConfig, len(c.Events))
		for i, ev := range c.Events {
			ev.Params = cloneMap(ev.Params)
			out.Events[i] = ev
		}
	}
	if c.Children != nil {
		out.Children = make([]Component, len(c.Children))
		for i := range c.Children {
			out.Children[i] = c.Children[i].Clone()
		}
	}
	return out
}

// cloneMap deep-copies a JSON-shaped map. Nested maps and slices are
// duplicated; scalar leaves are shared (they are immutable).
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
