// Package merge detects and resolves field-level conflicts between two
// divergent versions that share a common ancestor.
package merge

import (
	"errors"

	"github.com/inkpost/inkpost/internal/diff"
	"github.com/inkpost/inkpost/internal/model"
)

type Strategy string

const (
	// StrategyLocal resolves every conflict with the local value.
	StrategyLocal Strategy = "local"
	// StrategyRemote resolves every conflict with the remote value.
	StrategyRemote Strategy = "remote"
	// StrategyManual defers resolution to the caller; Merge returns the
	// conflicts unresolved and no merged field set.
	StrategyManual Strategy = "manual"
)

var ErrUnknownStrategy = errors.New("unknown merge strategy")

// Conflict exists only transiently during a merge attempt. Once resolved it
// is folded into the change list of the committed version.
type Conflict struct {
	Field       diff.Field `json:"field"`
	LocalValue  string     `json:"local_value"`
	RemoteValue string     `json:"remote_value"`
	Resolution  Strategy   `json:"resolution,omitempty"`
}

// Detect reports the fields where local and remote both diverged from base
// and disagree with each other. A field changed on only one side is not a
// conflict, that side's value wins silently.
func Detect(base, local, remote model.PostFields) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, f := range diff.TrackedFields {
		baseValue := diff.Value(base, f)
		localValue := diff.Value(local, f)
		remoteValue := diff.Value(remote, f)

		if localValue == baseValue || remoteValue == baseValue {
			continue
		}
		if localValue == remoteValue {
			continue
		}

		conflicts = append(conflicts, Conflict{
			Field:       f,
			LocalValue:  localValue,
			RemoteValue: remoteValue,
		})
	}

	return conflicts
}

// Resolve applies a strategy to the detected conflicts. For the manual
// strategy the conflicts come back unresolved and resolved is false.
func Resolve(conflicts []Conflict, strategy Strategy) (resolved []Conflict, done bool, err error) {
	switch strategy {
	case StrategyLocal, StrategyRemote:
		out := make([]Conflict, len(conflicts))
		for i, c := range conflicts {
			c.Resolution = strategy
			out[i] = c
		}
		return out, true, nil
	case StrategyManual:
		return conflicts, false, nil
	default:
		return nil, false, ErrUnknownStrategy
	}
}

// Merge combines local and remote on top of base. When a field changed on one
// side only, that side wins; conflicting fields follow the strategy. With the
// manual strategy and at least one conflict, merged is nil and the conflicts
// are returned for the caller to present a chooser.
func Merge(base, local, remote model.PostFields, strategy Strategy) (*model.PostFields, []Conflict, error) {
	conflicts, done, err := Resolve(Detect(base, local, remote), strategy)
	if err != nil {
		return nil, nil, err
	}

	if !done && len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	conflicted := make(map[diff.Field]Conflict, len(conflicts))
	for _, c := range conflicts {
		conflicted[c.Field] = c
	}

	merged := base
	for _, f := range diff.TrackedFields {
		baseValue := diff.Value(base, f)
		localValue := diff.Value(local, f)
		remoteValue := diff.Value(remote, f)

		var value string
		if c, ok := conflicted[f]; ok {
			if c.Resolution == StrategyLocal {
				value = c.LocalValue
			} else {
				value = c.RemoteValue
			}
		} else if localValue != baseValue {
			value = localValue
		} else {
			value = remoteValue
		}

		setValue(&merged, f, value)
	}

	return &merged, conflicts, nil
}

func setValue(fields *model.PostFields, f diff.Field, value string) {
	switch f {
	case diff.FieldTitle:
		fields.Title = value
	case diff.FieldContent:
		fields.Content = value
	case diff.FieldExcerpt:
		fields.Excerpt = value
	case diff.FieldTags:
		fields.Tags = model.DecodeTags(value)
	}
}
