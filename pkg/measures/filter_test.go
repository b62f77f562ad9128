package measures

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagged(key string, tags ...string) *Measure {
	m := tableMeasure(key, "orders", "qty")
	m.Metadata = &Metadata{Tags: tags}
	return m
}

func TestTagFilter(t *testing.T) {
	all := []*Measure{
		tagged("a", "core"),
		tagged("b", "core", "experimental"),
		tagged("c", "reporting"),
		tableMeasure("d", "orders", "qty"), // no metadata
	}

	f := NewTagFilter(logrus.New())

	tests := []struct {
		name      string
		selection *TagSelection
		wantKeys  []string
	}{
		{name: "nil selection keeps everything", selection: nil, wantKeys: []string{"a", "b", "c", "d"}},
		{name: "include", selection: &TagSelection{Include: []string{"core"}}, wantKeys: []string{"a", "b"}},
		{name: "exclude", selection: &TagSelection{Exclude: []string{"experimental"}}, wantKeys: []string{"a", "c", "d"}},
		{name: "require", selection: &TagSelection{Require: []string{"core", "experimental"}}, wantKeys: []string{"b"}},
		{
			name:      "exclude beats include",
			selection: &TagSelection{Include: []string{"core"}, Exclude: []string{"experimental"}},
			wantKeys:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(all, tt.selection)
			keys := make([]string, len(got))
			for i, m := range got {
				keys[i] = m.Key
			}
			require.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestTagFilterEmptySelectionStruct(t *testing.T) {
	all := []*Measure{tagged("a", "core")}

	got := NewTagFilter(logrus.New()).Filter(all, &TagSelection{})
	assert.Len(t, got, 1)
}
