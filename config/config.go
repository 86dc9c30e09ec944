package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/jbridge/errors"
)

// Class configures how one managed class is bridged.
type Class struct {
	// SyncSuffix is appended to the accessor name of the blocking variant.
	SyncSuffix string
	// AsyncSuffix is appended to the accessor name of the scheduled variant.
	AsyncSuffix string
	// PumpHostWhileProxyActive runs blocking calls on a helper thread and
	// pumps the host scheduler until they finish, as long as any proxy is
	// active. Needed when the managed call waits on a host callback.
	PumpHostWhileProxyActive bool
}

// Default returns the configuration used when none is given.
func Default() Class {
	return Class{SyncSuffix: "Sync"}
}

// Validate checks the suffixes can tell the variants apart.
func (c Class) Validate() error {
	if c.SyncSuffix == c.AsyncSuffix {
		return errors.InvalidInput(errors.PhaseConfig, "syncSuffix and asyncSuffix cannot be the same")
	}
	return nil
}

// Key identifies the configuration for caching.
func (c Class) Key() string {
	return fmt.Sprintf("pump=%t;sync=%q;async=%q", c.PumpHostWhileProxyActive, c.SyncSuffix, c.AsyncSuffix)
}

// IsDefault reports whether c equals Default().
func (c Class) IsDefault() bool {
	return c == Default()
}

// File is a parsed configuration file: defaults plus per-class overrides.
type File struct {
	Classes map[string]Class
	Default Class
}

type overlay struct {
	Pump        *bool   `toml:"pump_host_while_proxy_active"`
	SyncSuffix  *string `toml:"sync_suffix"`
	AsyncSuffix *string `toml:"async_suffix"`
}

func (o overlay) apply(c Class) Class {
	if o.Pump != nil {
		c.PumpHostWhileProxyActive = *o.Pump
	}
	if o.SyncSuffix != nil {
		c.SyncSuffix = *o.SyncSuffix
	}
	if o.AsyncSuffix != nil {
		c.AsyncSuffix = *o.AsyncSuffix
	}
	return c
}

type rawFile struct {
	Classes map[string]overlay `toml:"classes"`
	Default overlay            `toml:"default"`
}

// Load reads a TOML configuration file.
//
//	[default]
//	sync_suffix = "Sync"
//
//	[classes."demo.Worker"]
//	pump_host_while_proxy_active = true
func Load(path string) (*File, error) {
	var raw rawFile
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
	}
	return build(raw, md)
}

// Decode parses TOML configuration text.
func Decode(data string) (*File, error) {
	var raw rawFile
	md, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse configuration")
	}
	return build(raw, md)
}

func build(raw rawFile, md toml.MetaData) (*File, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown keys: "+strings.Join(keys, ", "))
	}

	f := &File{
		Default: raw.Default.apply(Default()),
		Classes: make(map[string]Class, len(raw.Classes)),
	}
	if err := f.Default.Validate(); err != nil {
		return nil, err
	}
	for name, o := range raw.Classes {
		c := o.apply(f.Default)
		if err := c.Validate(); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(name).Cause(err).Detail("class %s", name).Build()
		}
		f.Classes[name] = c
	}
	return f, nil
}

// For returns the configuration of className.
func (f *File) For(className string) Class {
	if f == nil {
		return Default()
	}
	if c, ok := f.Classes[className]; ok {
		return c
	}
	return f.Default
}
