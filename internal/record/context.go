package record

import (
	"fmt"
	"strconv"
	"strings"
)

// ClassContext is the CLSCTX activation locality requested when creating a
// class factory or instance.
type ClassContext uint32

// CLSCTX bits.
const (
	ContextInprocServer  ClassContext = 0x1
	ContextInprocHandler ClassContext = 0x2
	ContextLocalServer   ClassContext = 0x4
	ContextRemoteServer  ClassContext = 0x10

	ContextServer ClassContext = ContextInprocServer | ContextLocalServer | ContextRemoteServer
)

var contextNames = []struct {
	bit  ClassContext
	name string
}{
	{ContextInprocServer, "inproc"},
	{ContextInprocHandler, "handler"},
	{ContextLocalServer, "local"},
	{ContextRemoteServer, "remote"},
}

// InProcess reports whether the context only activates in-process servers,
// which is the only case where a vtable can be attributed to a module.
func (c ClassContext) InProcess() bool {
	return c&ContextInprocServer != 0 && c&(ContextLocalServer|ContextRemoteServer) == 0
}

// String renders the context as a '|' separated list of names.
func (c ClassContext) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	rest := c
	for _, n := range contextNames {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseClassContext accepts a decimal or 0x-prefixed number, or a '|' or ','
// separated list of names (inproc, handler, local, remote, server, none) and
// numbers. It is the inverse of String.
func ParseClassContext(s string) (ClassContext, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty class context")
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return ClassContext(n), nil
	}

	var c ClassContext
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "none":
			continue
		case "server":
			c |= ContextServer
			continue
		}
		if n, err := strconv.ParseUint(part, 0, 32); err == nil {
			c |= ClassContext(n)
			continue
		}
		found := false
		for _, n := range contextNames {
			if n.name == part {
				c |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown class context %q", part)
		}
	}
	return c, nil
}

// Set implements pflag.Value.
func (c *ClassContext) Set(s string) error {
	v, err := ParseClassContext(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *ClassContext) Type() string { return "clsctx" }

// MarshalText renders the context by name for config files.
func (c ClassContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the forms accepted by ParseClassContext.
func (c *ClassContext) UnmarshalText(text []byte) error {
	return c.Set(string(text))
}
