package measures

import (
	"github.com/sirupsen/logrus"
)

// TagSelection restricts which measures are selected for a run or listing
type TagSelection struct {
	// Include keeps measures carrying at least one of these tags
	Include []string `yaml:"include,omitempty"`
	// Require keeps only measures carrying all of these tags
	Require []string `yaml:"require,omitempty"`
	// Exclude drops measures carrying any of these tags
	Exclude []string `yaml:"exclude,omitempty"`
}

// TagFilter selects measures by their metadata tags
type TagFilter struct {
	logger logrus.FieldLogger
}

// NewTagFilter creates a new tag filter
func NewTagFilter(logger logrus.FieldLogger) *TagFilter {
	return &TagFilter{logger: logger}
}

// Filter returns the measures matching the selection. A nil selection keeps
// everything.
func (f *TagFilter) Filter(all []*Measure, selection *TagSelection) []*Measure {
	if selection == nil {
		return all
	}

	filtered := make([]*Measure, 0, len(all))
	for _, m := range all {
		if shouldIncludeMeasure(m.Tags(), selection) {
			filtered = append(filtered, m)
		} else {
			f.logger.WithField("measure", m.Key).
				WithField("tags", m.Tags()).
				Debug("Measure excluded by tag selection")
		}
	}

	f.logger.WithField("total_measures", len(all)).
		WithField("selected_measures", len(filtered)).
		Debug("Applied tag-based measure selection")

	return filtered
}

func shouldIncludeMeasure(tags []string, selection *TagSelection) bool {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}

	for _, exclude := range selection.Exclude {
		if tagSet[exclude] {
			return false
		}
	}

	for _, require := range selection.Require {
		if !tagSet[require] {
			return false
		}
	}

	if len(selection.Include) > 0 {
		for _, include := range selection.Include {
			if tagSet[include] {
				return true
			}
		}
		return false
	}

	return true
}
