// Package description attaches table and column descriptions to a model from the
// labels declared on its types, fields and enums.
package description

import (
	"io"
	"strconv"
	"strings"

	"db-describe/internal/model"

	"github.com/sirupsen/logrus"
)

// DefaultFlagsMarker prefixes the member list of a bit-flag enum.
const DefaultFlagsMarker = "[flags]"

// Harvester walks a model once and fills in missing descriptions.
type Harvester struct {
	provider    Provider
	flagsMarker string
	log         logrus.FieldLogger
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithFlagsMarker overrides DefaultFlagsMarker. An empty marker is ignored.
func WithFlagsMarker(marker string) Option {
	return func(h *Harvester) {
		if marker != "" {
			h.flagsMarker = marker
		}
	}
}

// WithLogger sets the logger used for per-item debug output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Harvester) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHarvester returns a Harvester reading labels from p.
func NewHarvester(p Provider, opts ...Option) *Harvester {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	h := &Harvester{provider: p, flagsMarker: DefaultFlagsMarker, log: quiet}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stats counts what a Harvest pass changed.
type Stats struct {
	Entities   int // entities given a description
	Properties int // properties given a description
	Skipped    int // properties left without one (no label found)
}

// Harvest attaches a description to every entity and property that has none yet
// and has a declared label. Existing descriptions always win, so calling Harvest
// again is a no-op.
func (h *Harvester) Harvest(m *model.Model) Stats {
	var stats Stats
	if m == nil {
		return stats
	}

	for _, e := range m.Entities {
		if e.Type == "" {
			continue
		}
		log := h.log.WithField("entity", e.Name)

		if e.Description == nil {
			if label, ok := h.label(h.provider.TypeLabel(e.Type)); ok {
				e.Description = model.Describe(label)
				stats.Entities++
				log.Debugf("table description: %q", label)
			}
		}

		for _, p := range e.Properties {
			if p.Field == "" || p.Description != nil {
				continue
			}

			label, ok := h.label(h.provider.FieldLabel(e.Type, p.Field))
			if !ok {
				label, ok = h.label(h.provider.TypeLabel(p.Type.Name))
			}
			if !ok {
				stats.Skipped++
				continue
			}

			// A nullable wrapper is looked up by its underlying type name, so an
			// optional enum is enriched the same way as a required one.
			if enum, isEnum := h.provider.Enum(p.Type.Name); isEnum {
				label = EnumDescription(label, enum, h.flagsMarker)
			}

			p.Description = model.Describe(label)
			stats.Properties++
			log.WithField("property", p.Name).Debugf("column description: %q", label)
		}
	}
	return stats
}

func (h *Harvester) label(label string, ok bool) (string, bool) {
	if !ok || strings.TrimSpace(label) == "" {
		return "", false
	}
	return label, true
}

// EnumDescription appends the enum's members to label:
// "label(<marker><value>: <label-or-name>; ...)". The marker is only written
// for flag enums; special members are left out.
func EnumDescription(label string, e model.EnumType, flagsMarker string) string {
	entries := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		if m.Special {
			continue
		}
		name := m.Label
		if strings.TrimSpace(name) == "" {
			name = m.Name
		}
		entries = append(entries, strconv.FormatInt(m.Value, 10)+": "+name)
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteByte('(')
	if e.Flags {
		b.WriteString(flagsMarker)
	}
	b.WriteString(strings.Join(entries, "; "))
	b.WriteByte(')')
	return b.String()
}
